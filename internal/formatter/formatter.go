// package formatter exports tabs to various formats (CSV, Markdown, plain text, M3U)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Format names an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
	M3U      Format = "m3u"
)

// ParseFormat resolves a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case CSV, Markdown, Text, M3U:
		return f, nil
	case "markdown":
		return Markdown, nil
	case "text":
		return Text, nil
	case "m3u8":
		return M3U, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Export renders tab in format.
func Export(tab playlist.TabRecord, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(tab)
	case Markdown:
		return ExportToMarkdown(tab, "")
	case Text:
		return ExportToText(tab)
	case M3U:
		return ExportToM3U(tab)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a tab to CSV with columns: Position, Title, Artist, Album, Genre, Duration, Path
func ExportToCSV(tab playlist.TabRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Genre", "Duration", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tab.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Artist,
			track.Album,
			track.Genre,
			strconv.Itoa(track.Duration),
			track.Path,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a tab to Markdown with an optional cover image
func ExportToMarkdown(tab playlist.TabRecord, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", tab.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(tab.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", FormatDuration(totalSeconds(tab)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tab.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		marker := ""
		if i == tab.Cursor {
			marker = " ◀"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]%s\n", i+1, track.Artist, track.Title, albumPart, FormatDuration(track.Duration), marker)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a tab to plain text
func ExportToText(tab playlist.TabRecord) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", tab.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tab.Tracks))

	for i, track := range tab.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// ExportToM3U converts a tab to an extended M3U playlist of absolute file paths.
func ExportToM3U(tab playlist.TabRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", tab.Name)
	for _, track := range tab.Tracks {
		duration := track.Duration
		if duration <= 0 {
			duration = -1
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s - %s\n%s\n", duration, track.Artist, track.Title, track.Path)
	}

	return buf.Bytes(), nil
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func totalSeconds(tab playlist.TabRecord) int {
	total := 0
	for _, t := range tab.Tracks {
		total += t.Duration
	}
	return total
}

// WriteExport writes tab in format to path.
func WriteExport(tab playlist.TabRecord, format Format, path string) error {
	data, err := Export(tab, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a tab to Markdown in a dedicated directory.
//
// Creates {dir}/README.md and, when the first track has artwork, {dir}/cover.{ext}.
func WriteMarkdownExport(tab playlist.TabRecord, outputDir string) (*MarkdownExportResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}

	var coverFilename string
	if len(tab.Tracks) > 0 {
		if art, err := facade.ArtworkFor(tab.Tracks[0]); err == nil {
			coverFilename = "cover" + imageExt(art.MIMEType)
			coverPath := filepath.Join(outputDir, coverFilename)
			if err := os.WriteFile(coverPath, art.Data, 0644); err != nil {
				return nil, fmt.Errorf("failed to save cover image: %w", err)
			}
			result.CoverImage = coverPath
			result.Files = append(result.Files, coverPath)
		}
	}

	mdData, err := ExportToMarkdown(tab, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

func imageExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
