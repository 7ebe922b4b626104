package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
	th "github.com/desertthunder/jukebox/internal/testing"
)

func sampleTab() playlist.TabRecord {
	return playlist.TabRecord{
		Key:    "k1",
		Name:   "Road Trip",
		Cursor: 1,
		Tracks: []models.Track{
			{ID: 1, Title: "Song One", Artist: "Artist One", Album: "Album One", Genre: "Rock", Duration: 180, Path: "/music/one.mp3"},
			{ID: 2, Title: "Song, Two", Artist: "Artist Two", Duration: 3725, Path: "/music/two.flac"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleTab())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "Position,Title,Artist,Album,Genre,Duration,Path" {
			t.Errorf("unexpected headers %q", lines[0])
		}
		if lines[1] != "1,Song One,Artist One,Album One,Rock,180,/music/one.mp3" {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if !strings.Contains(lines[2], `"Song, Two"`) {
			t.Errorf("expected comma in title to be quoted, got %q", lines[2])
		}
	})

	t.Run("ExportToCSV Empty", func(t *testing.T) {
		data, err := ExportToCSV(playlist.TabRecord{Name: "Empty", Cursor: -1})
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected header only, got %q", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleTab(), "cover.png")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Road Trip",
			"![Cover](cover.png)",
			"**Tracks**: 2",
			"**Length**: 1:05:05",
			"1. Artist One - Song One (Album One) [3:00]\n",
			"2. Artist Two - Song, Two [1:02:05] ◀",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Cover", func(t *testing.T) {
		data, _ := ExportToMarkdown(sampleTab(), "")
		if strings.Contains(string(data), "![Cover]") {
			t.Error("expected no cover image reference")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleTab())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Playlist: Road Trip\nTracks: 2\n\n1. Artist One - Song One\n2. Artist Two - Song, Two\n"
		if string(data) != want {
			t.Errorf("unexpected text export:\n%s", data)
		}
	})

	t.Run("ExportToM3U", func(t *testing.T) {
		tab := sampleTab()
		tab.Tracks[1].Duration = 0

		data, err := ExportToM3U(tab)
		if err != nil {
			t.Fatalf("ExportToM3U failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "#EXTM3U\n#PLAYLIST:Road Trip\n") {
			t.Errorf("missing M3U header, got:\n%s", output)
		}
		if !strings.Contains(output, "#EXTINF:180,Artist One - Song One\n/music/one.mp3\n") {
			t.Errorf("missing first entry, got:\n%s", output)
		}
		if !strings.Contains(output, "#EXTINF:-1,Artist Two - Song, Two\n/music/two.flac\n") {
			t.Errorf("expected unknown duration as -1, got:\n%s", output)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", CSV},
		{"CSV", CSV},
		{".md", Markdown},
		{"markdown", Markdown},
		{"text", Text},
		{"txt", Text},
		{"m3u8", M3U},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 3600: "1:00:00", -5: "0:00"}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trip.csv")
		if err := WriteExport(sampleTab(), CSV, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		data := th.MustReadFile(t, path)
		if !strings.HasPrefix(data, "Position,") {
			t.Errorf("unexpected file contents %q", data)
		}
	})

	t.Run("WriteExport Bad Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "trip.txt")
		if err := WriteExport(sampleTab(), Text, path); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})

	t.Run("WriteMarkdownExport With Cover", func(t *testing.T) {
		dir := t.TempDir()
		art := filepath.Join(dir, "art.png")
		os.WriteFile(art, []byte("\x89PNG\r\n\x1a\nfake"), 0644)

		tab := sampleTab()
		tab.Tracks[0].ArtworkPath = art

		out := filepath.Join(dir, "export")
		result, err := WriteMarkdownExport(tab, out)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.CoverImage != filepath.Join(out, "cover.png") {
			t.Errorf("expected cover.png, got %q", result.CoverImage)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected cover and README, got %v", result.Files)
		}

		th.AssertFileExists(t, result.CoverImage)
		readme := th.MustReadFile(t, filepath.Join(out, "README.md"))
		if !strings.Contains(readme, "![Cover](cover.png)") {
			t.Errorf("README missing cover reference:\n%s", readme)
		}
	})

	t.Run("WriteMarkdownExport Without Artwork", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "export")
		result, err := WriteMarkdownExport(sampleTab(), out)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.CoverImage != "" || len(result.Files) != 1 {
			t.Errorf("expected README only, got %+v", result)
		}
	})
}
