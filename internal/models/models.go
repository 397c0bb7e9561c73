package models

import (
	"fmt"
	"strconv"
)

// Manga holds the metadata for one series. Title and URL are always set;
// everything else is filled in progressively by the detail extractor.
type Manga struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Author        string   `json:"author,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	TotalChapters int      `json:"total_chapters,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	SummaryHTML   string   `json:"-"`
}

func (m Manga) String() string {
	if m.Author != "" {
		return m.Title + " by " + m.Author
	}
	return m.Title
}

// Chapter is one sub-division of a series. Number is a float so that
// in-between releases like 10.5 keep their place in the ordering.
// ImageURLs stays empty until the page resolver has run.
type Chapter struct {
	Number    float64  `json:"number"`
	URL       string   `json:"url"`
	Title     string   `json:"title,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

func (c Chapter) String() string {
	if c.Title != "" {
		return fmt.Sprintf("Chapter %s: %s", c.OrdinalLabel(), c.Title)
	}
	return "Chapter " + c.OrdinalLabel()
}

// OrdinalLabel renders the chapter number without a trailing ".0" so that
// directory names come out as Chapter_12, not Chapter_12.0.
func (c Chapter) OrdinalLabel() string {
	return strconv.FormatFloat(c.Number, 'f', -1, 64)
}

// SearchHit pairs a 1-based result index with the parsed series. The index
// is assigned at parse time and is only stable within one result page.
type SearchHit struct {
	Index int   `json:"index"`
	Manga Manga `json:"manga"`
}

func (h SearchHit) String() string {
	return fmt.Sprintf("%d. %s", h.Index, h.Manga)
}

// DownloadResult is the terminal outcome of one chapter download attempt.
// Path is set only on success; a failed result never names a directory.
type DownloadResult struct {
	Chapter          *Chapter `json:"chapter"`
	Success          bool     `json:"success"`
	Path             string   `json:"path,omitempty"`
	ImagesDownloaded int      `json:"images_downloaded"`
	ErrorMessage     string   `json:"error_message,omitempty"`
}

func (r DownloadResult) String() string {
	if r.Success {
		return fmt.Sprintf("downloaded %s to %s (%d images)", r.Chapter, r.Path, r.ImagesDownloaded)
	}
	return fmt.Sprintf("failed %s: %s", r.Chapter, r.ErrorMessage)
}
