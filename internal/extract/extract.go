// Package extract turns rendered pages into domain records: search hits,
// series details, chapter lists and per-chapter image URL lists. Each
// operation owns exactly one rendering session; the detail extractor is the
// one exception, handing its still-open session to the caller so the
// chapter list can be read without a second navigation.
package extract

import (
	"net/url"
	"time"

	"mangograb/internal/render"
	"mangograb/internal/sites"
)

type Config struct {
	Headless  bool
	UserAgent string
	// Timeout bounds every element and navigation wait.
	Timeout time.Duration
	// Settle is the pause after the results container appears, giving
	// client-side lazy loading a chance to fill in covers.
	Settle time.Duration
}

// OpenFunc opens a rendering session configured for a site variant. Tests
// substitute scripted sessions here.
type OpenFunc func(v sites.Variant) (render.Session, error)

type Extractor struct {
	open    OpenFunc
	timeout time.Duration
	settle  time.Duration
	// scrollPause spaces longstrip scroll rounds so lazy loaders get a
	// chance to fire between observations.
	scrollPause time.Duration
}

func New(cfg Config) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Extractor{
		open:        browserOpener(cfg),
		timeout:     cfg.Timeout,
		settle:      cfg.Settle,
		scrollPause: 500 * time.Millisecond,
	}
}

func browserOpener(cfg Config) OpenFunc {
	return func(v sites.Variant) (render.Session, error) {
		p := sites.ProfileFor(v)
		return render.Open(render.Options{
			Headless:       cfg.Headless,
			UserAgent:      cfg.UserAgent,
			ViewportWidth:  p.ViewportWidth,
			ViewportHeight: p.ViewportHeight,
			ExtraArgs:      p.ExtraArgs,
			NavTimeout:     cfg.Timeout,
		})
	}
}

// absoluteURL resolves href against base; relative links on listing pages
// are common.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
