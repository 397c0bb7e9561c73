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
	"mangograb/internal/sites"
)

// loopState makes the pagination loops explicit: a wait timeout is the
// normal end-of-chapter signal for the pattern and longstrip algorithms,
// and must never be confused with a genuine failure.
type loopState int

const (
	continuing loopState = iota
	terminatedNormally
	terminatedWithError
)

const (
	pageImageSelector = "img#page1"
	stripImageSel     = "img[id^='page']"
	nextChapterSel    = "a#next_chapter"
	// stabilityThreshold is the number of consecutive scroll rounds with
	// an unchanged image count before lazy loading is declared finished.
	stabilityThreshold = 3
)

var (
	pageTipRe    = regexp.MustCompile(`\((\d+)/(\d+)\)`)
	pageGroupRe  = regexp.MustCompile(`(?i)^(.*/pg-)(\d+)/?$`)
	stripIDRe    = regexp.MustCompile(`(\d+)$`)
	chapterKeyRe = regexp.MustCompile(`(?i)/c\.([\d.]+)`)
	stripKeyRe   = regexp.MustCompile(`(?i)/uu/(\d+)`)
)

// ResolveAssets turns a chapter URL into the ordered list of page image
// URLs. A fresh rendering session is opened for the chapter's site variant
// and closed before returning. An empty list with a nil error means the
// chapter genuinely exposed no images; the download coordinator treats
// that as a non-retryable failure for the chapter.
func (e *Extractor) ResolveAssets(chapterURL string) ([]string, error) {
	v := sites.Resolve(chapterURL)
	sess, err := e.open(v)
	if err != nil {
		return nil, &models.NetworkError{Op: "pages", URL: chapterURL, Cause: err}
	}
	defer sess.Close()

	switch v {
	case sites.VariantAltA:
		base, start, err := pageGroupPlan(chapterURL)
		if err != nil {
			return nil, err
		}
		return e.patternPages(sess, chapterURL, base, start)
	case sites.VariantAltB:
		base := chapterURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		return e.patternPages(sess, chapterURL, base, 1)
	case sites.VariantLongstrip:
		return e.longstripPages(sess, chapterURL)
	default:
		return e.countedPages(sess, chapterURL)
	}
}

// countedPages handles the classic numbered reader: a "(i/N)" indicator
// fixes the loop bound, so its absence is a hard parse failure rather than
// a fallback case.
func (e *Extractor) countedPages(sess render.Session, chapterURL string) ([]string, error) {
	if err := sess.Navigate(chapterURL); err != nil {
		return nil, &models.NetworkError{Op: "pages", URL: chapterURL, Cause: err}
	}
	if err := sess.WaitFor(".multi_pg_tip", e.timeout); err != nil {
		if errors.Is(err, render.ErrWaitTimeout) {
			return nil, &models.ParsingError{Op: "pages", URL: chapterURL, Cause: errors.New("page count indicator not found")}
		}
		return nil, &models.NetworkError{Op: "pages", URL: chapterURL, Cause: err}
	}

	doc, err := e.document(sess, chapterURL)
	if err != nil {
		return nil, err
	}
	total, err := parsePageCount(doc)
	if err != nil {
		return nil, &models.ParsingError{Op: "pages", URL: chapterURL, Cause: err}
	}

	base := chapterURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	urls := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		// Page 1 is the document already on screen.
		if i > 1 {
			if err := sess.Navigate(fmt.Sprintf("%s%d/", base, i)); err != nil {
				log.Warn().Int("page", i).Err(err).Msg("page navigation failed, skipping")
				continue
			}
		}
		if err := sess.WaitFor(pageImageSelector, e.timeout); err != nil {
			log.Warn().Int("page", i).Err(err).Msg("page image never appeared, skipping")
			continue
		}
		if src, ok := e.pageImageSrc(sess, chapterURL); ok {
			urls = append(urls, src)
		}
	}
	return urls, nil
}

func parsePageCount(doc *goquery.Document) (int, error) {
	tip := strings.TrimSpace(doc.Find(".multi_pg_tip").First().Text())
	m := pageTipRe.FindStringSubmatch(tip)
	if m == nil {
		return 0, fmt.Errorf("could not parse page count from %q", tip)
	}
	return strconv.Atoi(m[2])
}

// pageGroupPlan derives the pattern-pagination base and starting page from
// a ".../pg-<k>/" chapter URL.
func pageGroupPlan(chapterURL string) (string, int, error) {
	m := pageGroupRe.FindStringSubmatch(chapterURL)
	if m == nil {
		return "", 0, &models.ParsingError{Op: "pages", URL: chapterURL, Cause: errors.New("no page group segment in chapter url")}
	}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, &models.ParsingError{Op: "pages", URL: chapterURL, Cause: err}
	}
	return m[1], start, nil
}

// patternPages walks base+page URLs until a wait times out. The timeout is
// the natural end-of-chapter signal for these layouts, not an error.
func (e *Extractor) patternPages(sess render.Session, chapterURL, base string, start int) ([]string, error) {
	urls := []string{}
	state := continuing
	var loopErr error

	for page := start; state == continuing; page++ {
		pageURL := fmt.Sprintf("%s%d/", base, page)
		if err := sess.Navigate(pageURL); err != nil {
			if errors.Is(err, render.ErrWaitTimeout) {
				state = terminatedNormally
			} else {
				state = terminatedWithError
				loopErr = &models.NetworkError{Op: "pages", URL: pageURL, Cause: err}
			}
			continue
		}
		if err := sess.WaitFor(pageImageSelector, e.timeout); err != nil {
			if errors.Is(err, render.ErrWaitTimeout) {
				state = terminatedNormally
			} else {
				state = terminatedWithError
				loopErr = &models.NetworkError{Op: "pages", URL: pageURL, Cause: err}
			}
			continue
		}
		if src, ok := e.pageImageSrc(sess, chapterURL); ok {
			urls = append(urls, src)
		}
	}

	if state == terminatedWithError {
		return nil, loopErr
	}
	return urls, nil
}

// longstripPages drives the vertical reader: scroll one viewport at a
// time, watching the mounted image count until it holds steady for
// stabilityThreshold consecutive rounds, with one forced jump to the
// bottom injected near the end of the window to flush the last lazy
// trigger. Images are ordered by the numeric suffix of their element id;
// DOM order is unreliable once lazy loading has reflowed the strip. A
// "next" link is followed only while it stays inside the same chapter.
func (e *Extractor) longstripPages(sess render.Session, chapterURL string) ([]string, error) {
	if err := sess.Navigate(chapterURL); err != nil {
		return nil, &models.NetworkError{Op: "pages", URL: chapterURL, Cause: err}
	}

	profile := sites.ProfileFor(sites.VariantLongstrip)
	urls := []string{}
	seen := map[string]struct{}{}
	state := continuing

	for state == continuing {
		if err := sess.WaitFor(stripImageSel, e.timeout); err != nil {
			if errors.Is(err, render.ErrWaitTimeout) {
				state = terminatedNormally
				continue
			}
			return nil, &models.NetworkError{Op: "pages", URL: sess.CurrentURL(), Cause: err}
		}

		if err := e.scrollUntilStable(sess, profile.ViewportHeight); err != nil {
			return nil, &models.NetworkError{Op: "pages", URL: sess.CurrentURL(), Cause: err}
		}

		doc, err := e.document(sess, sess.CurrentURL())
		if err != nil {
			return nil, err
		}
		for _, src := range stripImageURLs(doc) {
			if _, ok := seen[src]; ok {
				continue
			}
			seen[src] = struct{}{}
			urls = append(urls, src)
		}

		next, ok := doc.Find(nextChapterSel).First().Attr("href")
		if !ok || strings.TrimSpace(next) == "" {
			state = terminatedNormally
			continue
		}
		currentKey := chapterKey(sess.CurrentURL())
		nextKey := chapterKey(next)
		if nextKey == "" || nextKey != currentKey {
			// The next link crosses into another chapter; stop before
			// navigating so its pages are never collected.
			state = terminatedNormally
			continue
		}
		if err := sess.Navigate(absoluteURL(sess.CurrentURL(), next)); err != nil {
			// Timeout or failure while following a same-chapter link is
			// treated the same as the link being absent.
			state = terminatedNormally
		}
	}

	return urls, nil
}

// scrollUntilStable keeps scrolling until the observed image count is
// identical for stabilityThreshold consecutive rounds.
func (e *Extractor) scrollUntilStable(sess render.Session, viewportHeight int) error {
	last := -1
	same := 0
	for same < stabilityThreshold {
		if err := sess.ScrollBy(viewportHeight); err != nil {
			return err
		}
		if e.scrollPause > 0 {
			time.Sleep(e.scrollPause)
		}
		count, err := e.stripImageCount(sess)
		if err != nil {
			return err
		}
		if count == last {
			same++
		} else {
			last = count
			same = 1
		}
		if same == stabilityThreshold-1 {
			if err := sess.ScrollToBottom(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) stripImageCount(sess render.Session) (int, error) {
	html, err := sess.HTML()
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}
	return doc.Find(stripImageSel).Length(), nil
}

type stripImage struct {
	index int
	src   string
}

func stripImageURLs(doc *goquery.Document) []string {
	images := []stripImage{}
	doc.Find(stripImageSel).Each(func(_ int, img *goquery.Selection) {
		id, _ := img.Attr("id")
		m := stripIDRe.FindStringSubmatch(id)
		if m == nil {
			return
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		src, ok := img.Attr("src")
		if !ok || src == "" {
			// Not yet hydrated by the lazy loader.
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			return
		}
		images = append(images, stripImage{index: index, src: src})
	})
	sort.Slice(images, func(i, j int) bool { return images[i].index < images[j].index })

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.src)
	}
	return urls
}

// chapterKey extracts the chapter identifier embedded in a reader URL,
// used to detect when a "next" link leaves the current chapter.
func chapterKey(rawURL string) string {
	if m := chapterKeyRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := stripKeyRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func (e *Extractor) pageImageSrc(sess render.Session, chapterURL string) (string, bool) {
	doc, err := e.document(sess, chapterURL)
	if err != nil {
		return "", false
	}
	src, ok := doc.Find(pageImageSelector).First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		log.Warn().Str("url", sess.CurrentURL()).Msg("page image present but src missing")
		return "", false
	}
	return src, true
}

func (e *Extractor) document(sess render.Session, opURL string) (*goquery.Document, error) {
	html, err := sess.HTML()
	if err != nil {
		return nil, &models.NetworkError{Op: "pages", URL: opURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParsingError{Op: "pages", URL: opURL, Cause: err}
	}
	return doc, nil
}
