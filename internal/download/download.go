// Package download writes chapter images to disk through a bounded worker
// pool. Chapters are isolated from each other: one chapter failing, even
// completely, never stops the rest of the batch.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"mangograb/internal/models"
	"mangograb/internal/sites"
)

const defaultWorkers = 5

// Fetcher retrieves one asset. *session.Session satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url, referer string) ([]byte, error)
}

type Config struct {
	// Root is the directory series folders are created under.
	Root string
	// Workers bounds how many chapters download at once.
	Workers int
}

// Progress carries optional observation hooks. OnAsset fires after every
// asset attempt within a chapter, OnChapter after a chapter settles.
// Either may be nil.
type Progress struct {
	OnAsset   func(chapter *models.Chapter, done, total int)
	OnChapter func(result models.DownloadResult)
}

type Coordinator struct {
	fetch   Fetcher
	root    string
	workers int
}

func New(fetch Fetcher, cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	root := cfg.Root
	if root == "" {
		root = "downloads"
	}
	return &Coordinator{fetch: fetch, root: root, workers: workers}
}

type job struct {
	index   int
	chapter *models.Chapter
}

// Run downloads every chapter in the batch and returns one result per
// chapter, in input order. The batch is placed under Root/<sanitized
// series title>, one Chapter_<ordinal> directory per chapter.
func (c *Coordinator) Run(ctx context.Context, title string, chapters []*models.Chapter, p Progress) ([]models.DownloadResult, error) {
	seriesDir := filepath.Join(c.root, SanitizeTitle(title))
	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		return nil, &models.DownloadError{Op: "mkdir", Cause: err}
	}

	results := make([]models.DownloadResult, len(chapters))
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := c.downloadChapter(ctx, seriesDir, j.chapter, p)
				results[j.index] = res
				if p.OnChapter != nil {
					p.OnChapter(res)
				}
			}
		}()
	}

	for i, ch := range chapters {
		jobs <- job{index: i, chapter: ch}
	}
	close(jobs)
	wg.Wait()

	return results, ctx.Err()
}

// downloadChapter fetches every asset of one chapter. Individual asset
// failures are logged and reduce the downloaded count, never the outcome:
// once the chapter directory exists the chapter reports success, even
// with zero images written. Only an empty asset list or a directory
// failure marks the chapter failed.
func (c *Coordinator) downloadChapter(ctx context.Context, seriesDir string, ch *models.Chapter, p Progress) models.DownloadResult {
	result := models.DownloadResult{Chapter: ch}

	if len(ch.ImageURLs) == 0 {
		result.ErrorMessage = "no page images resolved"
		return result
	}
	if ctx.Err() != nil {
		result.ErrorMessage = ctx.Err().Error()
		return result
	}

	chapterDir := filepath.Join(seriesDir, "Chapter_"+ch.OrdinalLabel())
	if err := os.MkdirAll(chapterDir, 0o755); err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	referer := sites.ProfileFor(sites.Resolve(ch.URL)).Referer
	total := len(ch.ImageURLs)
	done := 0
	for i, imageURL := range ch.ImageURLs {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(chapterDir, fmt.Sprintf("%03d.jpg", i+1))
		if _, err := os.Stat(path); err == nil {
			// Already on disk from an earlier run.
			done++
			if p.OnAsset != nil {
				p.OnAsset(ch, done, total)
			}
			continue
		}

		body, err := c.fetch.Fetch(ctx, imageURL, referer)
		if err != nil {
			log.Warn().Str("chapter", ch.OrdinalLabel()).Str("url", imageURL).Err(err).Msg("image download failed")
			continue
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			log.Warn().Str("path", path).Err(err).Msg("image write failed")
			continue
		}
		done++
		if p.OnAsset != nil {
			p.OnAsset(ch, done, total)
		}
	}

	result.ImagesDownloaded = done
	result.Success = true
	result.Path = chapterDir
	if done < total {
		log.Warn().Str("chapter", ch.OrdinalLabel()).Int("downloaded", done).Int("total", total).Msg("chapter incomplete")
	}
	return result
}

// SanitizeTitle makes a series title safe as a directory name: filesystem
// reserved characters become underscores and the result is capped at 255
// bytes.
func SanitizeTitle(title string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, title)
	sanitized = strings.TrimSpace(sanitized)
	if sanitized == "" {
		sanitized = "untitled"
	}
	if len(sanitized) > 255 {
		// Cut on a rune boundary so multi-byte titles stay valid UTF-8.
		cut := 255
		for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
			cut--
		}
		sanitized = sanitized[:cut]
	}
	return sanitized
}
