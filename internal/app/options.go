package app

import (
	"time"

	"mangograb/internal/session"
)

type Options struct {
	// Query searches the catalog; MangaURL skips search and goes straight
	// to a series page. One of the two is required unless Interactive.
	Query    string
	MangaURL string
	// Selection picks chapters: "all", "12", "3-7" or "1,4,9-11".
	Selection string

	DownloadDir  string
	Format       string
	DeleteImages bool

	BrowserWorkers  int
	DownloadWorkers int
	Timeout         time.Duration
	Settle          time.Duration
	Retries         int

	Headless  bool
	UserAgent string
}

const (
	FormatImages = "images"
	FormatCBZ    = "cbz"
)

func normalizeOptions(opts Options) Options {
	if opts.Selection == "" {
		opts.Selection = "all"
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "downloads"
	}
	if opts.Format == "" {
		opts.Format = FormatImages
	}
	if opts.BrowserWorkers <= 0 {
		opts.BrowserWorkers = 2
	}
	if opts.DownloadWorkers <= 0 {
		opts.DownloadWorkers = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 7 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = session.RandomUserAgent()
	}
	return opts
}
