// Package output writes series metadata to the download directory.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"mangograb/internal/models"
)

type InfoWriter struct {
	md *htmltomd.Converter
}

func NewInfoWriter() *InfoWriter {
	conv := htmltomd.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &InfoWriter{md: conv}
}

// WriteSeriesInfo renders an info.md into dir describing the series and
// its chapter list. The summary is converted from the site's HTML when
// available, falling back to the plain text.
func (w *InfoWriter) WriteSeriesInfo(dir string, manga *models.Manga, chapters []*models.Chapter) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", manga.Title)
	if manga.Author != "" {
		fmt.Fprintf(&b, "**Author:** %s\n\n", manga.Author)
	}
	if len(manga.Genres) > 0 {
		fmt.Fprintf(&b, "**Genres:** %s\n\n", strings.Join(manga.Genres, ", "))
	}
	if manga.CoverURL != "" {
		fmt.Fprintf(&b, "![cover](%s)\n\n", manga.CoverURL)
	}
	fmt.Fprintf(&b, "**Source:** %s\n\n", manga.URL)

	if summary := w.renderSummary(manga); summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	if len(chapters) > 0 {
		fmt.Fprintf(&b, "## Chapters (%d)\n\n", len(chapters))
		for _, ch := range chapters {
			label := ch.Title
			if label == "" {
				label = "Chapter " + ch.OrdinalLabel()
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", label, ch.URL)
		}
		b.WriteString("\n")
	}

	path := filepath.Join(dir, "info.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (w *InfoWriter) renderSummary(manga *models.Manga) string {
	if manga.SummaryHTML != "" {
		if md, err := w.md.ConvertString(manga.SummaryHTML); err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md)
		}
	}
	return strings.TrimSpace(manga.Summary)
}
