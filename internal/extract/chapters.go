package extract

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"mangograb/internal/models"
	"mangograb/internal/render"
)

var (
	chTitleOrdinalRe = regexp.MustCompile(`Ch\.(\d+(?:\.\d+)?)`)
	urlOrdinalRe     = regexp.MustCompile(`(?i)chapter[-_/](\d+\.?\d*)`)
	textOrdinalRe    = regexp.MustCompile(`(?i)(?:chapter|ch\.?)\s*(\d+\.?\d*)`)
	chapterHrefRe    = regexp.MustCompile(`(?i)/(?:c[.-]|chapter/|uu/)\d`)
)

// ListChapters reads the chapter listing from a series page already loaded
// in sess. The session belongs to the caller and is left open. The
// returned list is always ascending by ordinal; the site lists newest
// first.
func (e *Extractor) ListChapters(sess render.Session) ([]*models.Chapter, error) {
	// Long series hide most rows behind a "show all" control. Its absence
	// is normal on short series, so a failed click is swallowed.
	if err := sess.Click("#show_all_chapters", 2*time.Second); err != nil {
		if !errors.Is(err, render.ErrWaitTimeout) {
			log.Debug().Err(err).Msg("show-all click failed")
		}
	}

	pageURL := sess.CurrentURL()
	html, err := sess.HTML()
	if err != nil {
		return nil, &models.NetworkError{Op: "chapters", URL: pageURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParsingError{Op: "chapters", URL: pageURL, Cause: err}
	}

	chapters := parseChapterTable(doc, pageURL)
	if len(chapters) == 0 {
		chapters = parseChapterAnchors(doc, pageURL)
	}
	if len(chapters) == 0 {
		return nil, &models.DownloadError{Op: "chapters", Cause: fmt.Errorf("no chapter listing found on %s", pageURL)}
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})
	warnOrdinalCollisions(chapters)
	return chapters, nil
}

func parseChapterTable(doc *goquery.Document, pageURL string) []*models.Chapter {
	chapters := []*models.Chapter{}
	doc.Find("table.listing tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.chico").First()
		if link.Length() == 0 {
			return
		}
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		chapters = append(chapters, &models.Chapter{
			Number: parseOrdinal(title, href),
			Title:  title,
			URL:    absoluteURL(pageURL, href),
		})
	})
	return chapters
}

// parseChapterAnchors is the fallback for layouts without a listing table:
// any anchor whose href looks like a chapter URL is taken, with the
// ordinal derived from the URL before the link text.
func parseChapterAnchors(doc *goquery.Document, pageURL string) []*models.Chapter {
	chapters := []*models.Chapter{}
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || !chapterHrefRe.MatchString(href) {
			return
		}
		full := absoluteURL(pageURL, href)
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		title := strings.TrimSpace(a.Text())
		chapters = append(chapters, &models.Chapter{
			Number: parseOrdinalFromURL(full, title),
			Title:  title,
			URL:    full,
		})
	})
	return chapters
}

// parseOrdinal prefers the "Ch.<n>" title fragment, then the URL, then a
// looser title match. Unparseable chapters degrade to ordinal 0 instead of
// failing the whole listing, with a warning so mis-parses don't pass
// silently.
func parseOrdinal(title, href string) float64 {
	if m := chTitleOrdinalRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	if m := urlOrdinalRe.FindStringSubmatch(href); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	if m := textOrdinalRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	log.Warn().Str("title", title).Str("url", href).Msg("chapter ordinal did not parse, defaulting to 0")
	return 0
}

func parseOrdinalFromURL(href, title string) float64 {
	if m := urlOrdinalRe.FindStringSubmatch(href); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	if m := textOrdinalRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	log.Warn().Str("title", title).Str("url", href).Msg("chapter ordinal did not parse, defaulting to 0")
	return 0
}

func warnOrdinalCollisions(chapters []*models.Chapter) {
	for i := 1; i < len(chapters); i++ {
		if chapters[i].Number == chapters[i-1].Number {
			log.Warn().
				Float64("ordinal", chapters[i].Number).
				Str("first", chapters[i-1].URL).
				Str("second", chapters[i].URL).
				Msg("duplicate chapter ordinal; selection by number will be ambiguous")
		}
	}
}
