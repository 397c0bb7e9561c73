// Package sites maps a content or chapter URL onto one of the known site
// layouts. Resolution is a pure function of the URL: host name first, then
// path shape within the host. Unknown URLs fall back to the primary layout
// rather than failing, so callers never have to handle a "no variant" case.
package sites

import (
	"net/url"
	"regexp"
	"strings"
)

type Variant int

const (
	VariantPrimary Variant = iota
	VariantAltA
	VariantAltB
	VariantLongstrip
)

func (v Variant) String() string {
	switch v {
	case VariantAltA:
		return "alt-a"
	case VariantAltB:
		return "alt-b"
	case VariantLongstrip:
		return "longstrip"
	default:
		return "primary"
	}
}

const (
	BaseURL   = "https://www.mangago.me/"
	SearchURL = "https://www.mangago.me/r/l_search/"
)

var (
	pageGroupRe = regexp.MustCompile(`/pg-\d+/?$`)
	chapterIDRe = regexp.MustCompile(`/chapter/\d+/\d+/?`)
)

// Resolve picks the extraction strategy for a URL. Adding support for a new
// domain means adding a case here and one algorithm in extract; existing
// cases are never modified.
func Resolve(rawURL string) Variant {
	u, err := url.Parse(rawURL)
	if err != nil {
		return VariantPrimary
	}
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.EscapedPath())

	if strings.Contains(path, "/uu/") {
		return VariantLongstrip
	}

	switch {
	case strings.HasSuffix(host, "mangago.zone"):
		return VariantAltA
	case strings.HasSuffix(host, "youhim.me"):
		return VariantAltB
	}

	// Mirror layouts occasionally show up on the primary host as well;
	// the path shape is the tell.
	if pageGroupRe.MatchString(path) {
		return VariantAltA
	}
	if chapterIDRe.MatchString(path) {
		return VariantAltB
	}
	return VariantPrimary
}

// Profile carries the per-variant knobs that differ between layouts:
// which referer asset fetches must present, which landmark element marks a
// loaded detail page, and how the browser should be launched.
type Profile struct {
	Referer        string
	Landmark       string
	ViewportWidth  int
	ViewportHeight int
	ExtraArgs      []string
}

// ProfileFor returns the launch and fetch profile for a variant. The mirror
// domains reject requests unless the referer names the primary site, so the
// referer here is fixed and deliberately unrelated to the navigation URL.
func ProfileFor(v Variant) Profile {
	switch v {
	case VariantAltA, VariantAltB:
		return Profile{
			Referer:        BaseURL,
			Landmark:       "body",
			ViewportWidth:  1280,
			ViewportHeight: 800,
		}
	case VariantLongstrip:
		return Profile{
			Referer:        BaseURL,
			Landmark:       "body",
			ViewportWidth:  1280,
			ViewportHeight: 2400,
			ExtraArgs:      []string{"--force-device-scale-factor=1"},
		}
	default:
		return Profile{
			Referer:        BaseURL,
			Landmark:       "#page",
			ViewportWidth:  1280,
			ViewportHeight: 800,
		}
	}
}
