// Package report formats user-facing summaries of searches, chapter
// listings and download batches.
package report

import (
	"fmt"
	"io"
	"strings"

	"mangograb/internal/models"
)

type Summary struct {
	Chapters  int
	Succeeded int
	Failed    int
	Images    int
}

func Summarize(results []models.DownloadResult) Summary {
	s := Summary{Chapters: len(results)}
	for _, res := range results {
		if res.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.Images += res.ImagesDownloaded
	}
	return s
}

func PrintSearchResults(w io.Writer, hits []models.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	fmt.Fprintf(w, "Found %d results:\n\n", len(hits))
	for _, hit := range hits {
		fmt.Fprintf(w, "%3d. %s\n", hit.Index, hit.Manga.Title)
		if hit.Manga.Author != "" {
			fmt.Fprintf(w, "     Author: %s\n", hit.Manga.Author)
		}
		if len(hit.Manga.Genres) > 0 {
			fmt.Fprintf(w, "     Genres: %s\n", strings.Join(hit.Manga.Genres, ", "))
		}
		if hit.Manga.TotalChapters > 0 {
			fmt.Fprintf(w, "     Chapters: %d\n", hit.Manga.TotalChapters)
		}
	}
}

func PrintChapters(w io.Writer, chapters []*models.Chapter) {
	fmt.Fprintf(w, "%d chapters available:\n", len(chapters))
	for _, ch := range chapters {
		label := ch.Title
		if label == "" {
			label = "Chapter " + ch.OrdinalLabel()
		}
		fmt.Fprintf(w, "  Ch.%-8s %s\n", ch.OrdinalLabel(), label)
	}
}

func PrintOutcome(w io.Writer, results []models.DownloadResult) {
	s := Summarize(results)
	fmt.Fprintf(w, "\nDownload complete: %d/%d chapters, %d images.\n", s.Succeeded, s.Chapters, s.Images)
	if s.Failed == 0 {
		return
	}
	fmt.Fprintf(w, "%d chapters failed:\n", s.Failed)
	for _, res := range results {
		if res.Success {
			continue
		}
		fmt.Fprintf(w, "  Ch.%s: %s\n", res.Chapter.OrdinalLabel(), res.ErrorMessage)
	}
}
