package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tracklist/internal/tracklist"
)

// Format names a supported output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatM3U      Format = "m3u"
	FormatCSV      Format = "csv"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatM3U:
		return FormatM3U, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected json, markdown, m3u, or csv)", s)
	}
}

// Extension returns the file extension for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatM3U:
		return ".m3u"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// Document is the exportable view of one run's tracklist.
type Document struct {
	RunID       string            `json:"run_id"`
	Source      string            `json:"source"`
	Title       string            `json:"title,omitempty"`
	Artist      string            `json:"artist,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Partial     bool              `json:"partial,omitempty"`
	Tracks      []tracklist.Track `json:"tracks"`
}

// Heading returns the human-facing mix title for rendered formats.
func (d Document) Heading() string {
	switch {
	case d.Artist != "" && d.Title != "":
		return d.Artist + " - " + d.Title
	case d.Title != "":
		return d.Title
	default:
		return filepath.Base(d.Source)
	}
}

// FileName derives the output file name for the document in a format.
func (d Document) FileName(format Format) string {
	base := strings.TrimSuffix(filepath.Base(d.Source), filepath.Ext(d.Source))
	if base == "" || base == "." {
		base = "tracklist"
	}
	return base + ".tracklist" + format.Extension()
}

// Write renders the document to w in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatMarkdown:
		return writeMarkdown(w, doc)
	case FormatM3U:
		return writeM3U(w, doc)
	case FormatCSV:
		return writeCSV(w, doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeMarkdown(w io.Writer, doc Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Heading())
	fmt.Fprintf(&b, "Generated %s\n\n", doc.GeneratedAt.Format("2006-01-02 15:04"))
	if doc.Partial {
		b.WriteString("_Partial run: not every segment was processed._\n\n")
	}
	for _, t := range doc.Tracks {
		fmt.Fprintf(&b, "- [%s] **%s** - %s (%.0f%%)\n",
			tracklist.FormatTimestamp(t.FirstSeen), t.Artist, t.Title, t.Confidence*100)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeM3U(w io.Writer, doc Document) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#PLAYLIST:%s\n", doc.Heading())
	for _, t := range doc.Tracks {
		fmt.Fprintf(&b, "#EXTINF:-1,%s - %s\n", t.Artist, t.Title)
		fmt.Fprintf(&b, "%s - %s\n", t.Artist, t.Title)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"position", "first_seen", "artist", "title", "confidence", "provider", "occurrences"}); err != nil {
		return err
	}
	for i, t := range doc.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			tracklist.FormatTimestamp(t.FirstSeen),
			t.Artist,
			t.Title,
			strconv.FormatFloat(t.Confidence, 'f', 2, 64),
			t.Provider,
			strconv.Itoa(t.Occurrences),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
