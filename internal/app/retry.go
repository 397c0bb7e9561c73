package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

var backoffs = []time.Duration{0, time.Second, 2 * time.Second}

// retry runs fn up to attempts times with a short growing pause between
// tries. Context cancellation ends the loop immediately.
func retry(ctx context.Context, attempts int, label string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			pause := backoffs[len(backoffs)-1]
			if attempt < len(backoffs) {
				pause = backoffs[attempt]
			}
			log.Warn().Str("op", label).Int("attempt", attempt).Err(err).Msg("retrying")
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil || ctx.Err() != nil {
			break
		}
	}
	return err
}
