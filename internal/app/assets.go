package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"mangograb/internal/extract"
	"mangograb/internal/models"
)

// resolveAssets fills in the page image URLs for every selected chapter.
// Browser sessions are expensive, so the pool here is much smaller than
// the download pool. A chapter whose resolution fails after retries keeps
// an empty URL list and will be reported as failed by the downloader.
func resolveAssets(ctx context.Context, ex *extract.Extractor, chapters []*models.Chapter, opts Options) {
	sem := make(chan struct{}, opts.BrowserWorkers)
	var wg sync.WaitGroup
	for _, ch := range chapters {
		wg.Add(1)
		go func(ch *models.Chapter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}

			err := retry(ctx, opts.Retries, "resolve chapter "+ch.OrdinalLabel(), func() error {
				urls, err := ex.ResolveAssets(ch.URL)
				if err != nil {
					return err
				}
				ch.ImageURLs = urls
				return nil
			})
			if err != nil {
				log.Error().Str("chapter", ch.OrdinalLabel()).Str("url", ch.URL).Err(err).Msg("could not resolve chapter pages")
				ch.ImageURLs = nil
				return
			}
			log.Info().Str("chapter", ch.OrdinalLabel()).Int("pages", len(ch.ImageURLs)).Msg("chapter resolved")
		}(ch)
	}
	wg.Wait()
}
