package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata carries the mix-level tags read from the input file. All fields
// are best-effort; Title falls back to the file name.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ProbeMetadata reads embedded tags from an audio file. Missing or
// unreadable tags are not an error; the returned metadata always has a
// usable Title.
func ProbeMetadata(path string) Metadata {
	meta := Metadata{Title: titleFromPath(path)}

	f, err := os.Open(path)
	if err != nil {
		return meta
	}
	defer f.Close()

	tags, err := tag.ReadFrom(f)
	if err != nil {
		return meta
	}
	if title := strings.TrimSpace(tags.Title()); title != "" {
		meta.Title = title
	}
	meta.Artist = strings.TrimSpace(tags.Artist())
	meta.Album = strings.TrimSpace(tags.Album())
	return meta
}

func titleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return "Untitled Mix"
	}
	return base
}
