package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tracklist/internal/tracklist"
)

func testDocument() Document {
	return Document{
		RunID:       "run-1",
		Source:      "/music/summer-mix.wav",
		Title:       "Summer Mix",
		Artist:      "DJ Example",
		GeneratedAt: time.Date(2026, 8, 1, 20, 30, 0, 0, time.UTC),
		Tracks: []tracklist.Track{
			{Title: "One More Time", Artist: "Daft Punk", Confidence: 0.93, FirstSeen: 0, LastSeen: 240, Provider: "acrcloud", Occurrences: 5},
			{Title: "Strobe", Artist: "deadmau5", Confidence: 0.87, FirstSeen: 250, LastSeen: 580, Provider: "audd", Occurrences: 7},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"m3u", FormatM3U, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, FormatJSON, testDocument()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	var decoded Document
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Tracks) != 2 {
		t.Fatalf("decoded document %+v", decoded)
	}
	if decoded.Tracks[1].Title != "Strobe" {
		t.Fatalf("second track %q, want Strobe", decoded.Tracks[1].Title)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, FormatMarkdown, testDocument()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	got := buf.String()

	if !strings.HasPrefix(got, "# DJ Example - Summer Mix\n") {
		t.Fatalf("missing heading:\n%s", got)
	}
	if !strings.Contains(got, "- [00:00:00] **Daft Punk** - One More Time (93%)") {
		t.Fatalf("missing first entry:\n%s", got)
	}
	if !strings.Contains(got, "- [00:04:10] **deadmau5** - Strobe (87%)") {
		t.Fatalf("missing second entry:\n%s", got)
	}
}

func TestWriteM3U(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, FormatM3U, testDocument()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if lines[0] != "#EXTM3U" {
		t.Fatalf("first line %q, want #EXTM3U", lines[0])
	}
	want := []string{
		"#PLAYLIST:DJ Example - Summer Mix",
		"#EXTINF:-1,Daft Punk - One More Time",
		"Daft Punk - One More Time",
		"#EXTINF:-1,deadmau5 - Strobe",
		"deadmau5 - Strobe",
	}
	if len(lines) != len(want)+1 {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want)+1, buf.String())
	}
	for i, line := range want {
		if lines[i+1] != line {
			t.Errorf("line %d is %q, want %q", i+1, lines[i+1], line)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, FormatCSV, testDocument()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if got, want := lines[0], "position,first_seen,artist,title,confidence,provider,occurrences"; got != want {
		t.Fatalf("header %q, want %q", got, want)
	}
	if got, want := lines[1], "1,00:00:00,Daft Punk,One More Time,0.93,acrcloud,5"; got != want {
		t.Fatalf("row %q, want %q", got, want)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
}

func TestFileName(t *testing.T) {
	doc := testDocument()
	cases := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "summer-mix.tracklist.json"},
		{FormatMarkdown, "summer-mix.tracklist.md"},
		{FormatM3U, "summer-mix.tracklist.m3u"},
		{FormatCSV, "summer-mix.tracklist.csv"},
	}
	for _, tc := range cases {
		if got := doc.FileName(tc.format); got != tc.want {
			t.Errorf("FileName(%s) = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestHeadingFallsBackToSourceName(t *testing.T) {
	doc := Document{Source: "/music/live-set.wav"}
	if got, want := doc.Heading(), "live-set.wav"; got != want {
		t.Fatalf("Heading() = %q, want %q", got, want)
	}
}
