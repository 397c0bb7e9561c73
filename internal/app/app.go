// Package app orchestrates a full acquisition run: search or direct URL,
// series details, chapter selection, page resolution through browser
// sessions, and the image download batch.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"mangograb/internal/archive"
	"mangograb/internal/download"
	"mangograb/internal/extract"
	"mangograb/internal/models"
	"mangograb/internal/output"
	"mangograb/internal/render"
	"mangograb/internal/report"
	"mangograb/internal/session"
)

// Prompter supplies the interactive answers Run needs mid-flow. A nil
// Prompter makes Run fully non-interactive.
type Prompter interface {
	Query() (string, error)
	MangaChoice(hits []models.SearchHit) (models.SearchHit, error)
	ChapterSelection(chapters []*models.Chapter) (string, error)
	Output(format string, deleteImages bool) (string, bool, error)
}

func Run(ctx context.Context, opts Options, prompter Prompter) error {
	opts = normalizeOptions(opts)
	ex := extract.New(extract.Config{
		Headless:  opts.Headless,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Settle:    opts.Settle,
	})

	mangaURL, hitTitle, err := locateSeries(ctx, ex, opts, prompter)
	if err != nil || mangaURL == "" {
		return err
	}

	manga, chapters, err := loadSeries(ctx, ex, mangaURL, opts)
	if err != nil {
		return err
	}
	if manga.Title == "Unknown Title" && hitTitle != "" {
		manga.Title = hitTitle
	}
	report.PrintChapters(os.Stdout, chapters)

	selection := opts.Selection
	if prompter != nil {
		if selection, err = prompter.ChapterSelection(chapters); err != nil {
			return err
		}
	}
	selected, err := SelectChapters(selection, chapters)
	if err != nil {
		return err
	}

	if prompter != nil {
		if opts.Format, opts.DeleteImages, err = prompter.Output(opts.Format, opts.DeleteImages); err != nil {
			return err
		}
	}

	fmt.Printf("Resolving pages for %d chapters...\n", len(selected))
	resolveAssets(ctx, ex, selected, opts)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	results, err := runDownloads(ctx, manga, selected, opts)
	if err != nil {
		return err
	}
	report.PrintOutcome(os.Stdout, results)

	return writeOutputs(manga, chapters, results, opts)
}

// locateSeries turns the options into a series page URL, searching the
// catalog when no direct URL was given.
func locateSeries(ctx context.Context, ex *extract.Extractor, opts Options, prompter Prompter) (string, string, error) {
	if opts.MangaURL != "" {
		return opts.MangaURL, "", nil
	}

	query := opts.Query
	if query == "" && prompter != nil {
		var err error
		if query, err = prompter.Query(); err != nil {
			return "", "", err
		}
	}
	if query == "" {
		return "", "", errors.New("a search query or series url is required")
	}

	var hits []models.SearchHit
	err := retry(ctx, opts.Retries, "search", func() error {
		var searchErr error
		hits, searchErr = ex.Search(query, 1)
		return searchErr
	})
	if err != nil {
		return "", "", err
	}

	report.PrintSearchResults(os.Stdout, hits)
	if len(hits) == 0 {
		return "", "", nil
	}

	hit := hits[0]
	if prompter != nil {
		if hit, err = prompter.MangaChoice(hits); err != nil {
			return "", "", err
		}
	}
	return hit.Manga.URL, hit.Manga.Title, nil
}

// loadSeries fetches details and the chapter list over one browser
// session; the session from the detail extraction is reused for the
// listing and closed here.
func loadSeries(ctx context.Context, ex *extract.Extractor, mangaURL string, opts Options) (*models.Manga, []*models.Chapter, error) {
	var manga *models.Manga
	var chapters []*models.Chapter

	err := retry(ctx, opts.Retries, "series", func() error {
		var sess render.Session
		var err error
		manga, sess, err = ex.Details(mangaURL)
		if err != nil {
			return err
		}
		defer sess.Close()

		chapters, err = ex.ListChapters(sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	fmt.Printf("\n%s\n", manga)
	return manga, chapters, nil
}

func runDownloads(ctx context.Context, manga *models.Manga, selected []*models.Chapter, opts Options) ([]models.DownloadResult, error) {
	httpSess := session.New(opts.Timeout)
	defer httpSess.Close()

	totalAssets := 0
	for _, ch := range selected {
		totalAssets += len(ch.ImageURLs)
	}
	bar := progressbar.NewOptions(totalAssets,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	progress := download.Progress{
		OnAsset: func(*models.Chapter, int, int) { _ = bar.Add(1) },
	}

	coord := download.New(httpSess, download.Config{Root: opts.DownloadDir, Workers: opts.DownloadWorkers})
	results, err := coord.Run(ctx, manga.Title, selected, progress)
	_ = bar.Finish()
	return results, err
}

func writeOutputs(manga *models.Manga, chapters []*models.Chapter, results []models.DownloadResult, opts Options) error {
	seriesDir := filepath.Join(opts.DownloadDir, download.SanitizeTitle(manga.Title))

	if opts.Format == FormatCBZ {
		for _, res := range results {
			if !res.Success {
				continue
			}
			cbzPath, err := archive.ChapterCBZ(res.Path, opts.DeleteImages)
			if err != nil {
				log.Error().Str("dir", res.Path).Err(err).Msg("cbz conversion failed")
				continue
			}
			log.Info().Str("cbz", cbzPath).Msg("chapter archived")
		}
	}

	infoPath, err := output.NewInfoWriter().WriteSeriesInfo(seriesDir, manga, chapters)
	if err != nil {
		return fmt.Errorf("write series info: %w", err)
	}
	fmt.Printf("Wrote series info: %s\n", infoPath)
	return nil
}
