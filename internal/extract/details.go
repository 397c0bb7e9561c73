package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangograb/internal/models"
	"mangograb/internal/render"
	"mangograb/internal/sites"
)

// Details navigates to a series page and parses its metadata. On success
// the still-open session is returned alongside the record and ownership
// transfers to the caller, which must close it; this saves the chapter
// list extractor a second expensive navigation. Every failure path closes
// the session before returning — the caller never receives a session
// together with an error.
func (e *Extractor) Details(mangaURL string) (*models.Manga, render.Session, error) {
	v := sites.Resolve(mangaURL)
	profile := sites.ProfileFor(v)

	sess, err := e.open(v)
	if err != nil {
		return nil, nil, &models.NetworkError{Op: "details", URL: mangaURL, Cause: err}
	}

	if err := sess.Navigate(mangaURL); err != nil {
		_ = sess.Close()
		return nil, nil, &models.NetworkError{Op: "details", URL: mangaURL, Cause: err}
	}

	if err := sess.WaitFor(profile.Landmark, e.timeout); err != nil {
		if !errors.Is(err, render.ErrWaitTimeout) {
			_ = sess.Close()
			return nil, nil, &models.NetworkError{Op: "details", URL: mangaURL, Cause: err}
		}
		// Landmark missing on an unfamiliar layout; fall back to a bare
		// body-present wait before giving up.
		if err := sess.WaitFor("body", e.timeout); err != nil {
			_ = sess.Close()
			return nil, nil, &models.NetworkError{Op: "details", URL: mangaURL, Cause: err}
		}
	}

	html, err := sess.HTML()
	if err != nil {
		_ = sess.Close()
		return nil, nil, &models.NetworkError{Op: "details", URL: mangaURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		_ = sess.Close()
		return nil, nil, &models.ParsingError{Op: "details", URL: mangaURL, Cause: err}
	}

	return parseDetails(doc, mangaURL), sess, nil
}

// parseDetails guards every field independently so one absent element
// never blanks the rest of the record.
func parseDetails(doc *goquery.Document, mangaURL string) *models.Manga {
	manga := &models.Manga{Title: "Unknown Title", URL: mangaURL}

	if title := firstText(doc, "h1", "div.title"); title != "" {
		manga.Title = title
	}
	manga.Author = firstText(doc, "span.author", "div.author-info")

	genreBlock := doc.Find("div.genres, div.genre-list").First()
	if genreBlock.Length() > 0 {
		links := genreBlock.Find("a")
		if links.Length() == 0 {
			links = genreBlock.Find("span")
		}
		links.Each(func(_ int, s *goquery.Selection) {
			if g := strings.TrimSpace(s.Text()); g != "" {
				manga.Genres = append(manga.Genres, g)
			}
		})
	}

	cover := doc.Find("img.cover, img#cover").First()
	if src, ok := cover.Attr("src"); ok && src != "" {
		manga.CoverURL = absoluteURL(mangaURL, src)
	}

	summary := doc.Find("div.manga_summary").First()
	if summary.Length() > 0 {
		manga.Summary = strings.TrimSpace(summary.Text())
		if inner, err := summary.Html(); err == nil {
			manga.SummaryHTML = inner
		}
	}
	return manga
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
