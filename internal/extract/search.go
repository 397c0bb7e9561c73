package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"mangograb/internal/models"
	"mangograb/internal/render"
	"mangograb/internal/sites"
)

var latestChapterRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Search runs a title query against the primary site and returns the
// parsed hits for one result page. The session is closed before returning
// in every case; search never hands a session onward. An empty result is
// not an error.
func (e *Extractor) Search(query string, page int) ([]models.SearchHit, error) {
	searchURL := fmt.Sprintf("%s?name=%s&page=%d", sites.SearchURL, url.QueryEscape(query), page)

	sess, err := e.open(sites.VariantPrimary)
	if err != nil {
		return nil, &models.NetworkError{Op: "search", URL: searchURL, Cause: err}
	}
	defer sess.Close()

	if err := sess.Navigate(searchURL); err != nil {
		return nil, &models.NetworkError{Op: "search", URL: searchURL, Cause: err}
	}
	// The container is absent when the query matches nothing, so a wait
	// timeout here just means zero hits.
	if err := sess.WaitFor("#search_list", e.timeout); err != nil && !errors.Is(err, render.ErrWaitTimeout) {
		return nil, &models.NetworkError{Op: "search", URL: searchURL, Cause: err}
	}
	if e.settle > 0 {
		time.Sleep(e.settle)
	}

	html, err := sess.HTML()
	if err != nil {
		return nil, &models.NetworkError{Op: "search", URL: searchURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParsingError{Op: "search", URL: searchURL, Cause: err}
	}
	return parseSearchResults(doc), nil
}

func parseSearchResults(doc *goquery.Document) []models.SearchHit {
	hits := []models.SearchHit{}
	doc.Find("#search_list li").Each(func(i int, li *goquery.Selection) {
		index := i + 1
		manga, ok := parseSearchItem(li)
		if !ok {
			log.Warn().Int("index", index).Msg("skipping malformed search hit")
			return
		}
		hits = append(hits, models.SearchHit{Index: index, Manga: manga})
	})
	return hits
}

// parseSearchItem is best-effort: only title and URL are mandatory, every
// other field degrades to its zero value.
func parseSearchItem(li *goquery.Selection) (models.Manga, bool) {
	titleLink := li.Find("h2 a").First()
	title := strings.TrimSpace(titleLink.Text())
	href, _ := titleLink.Attr("href")
	if title == "" || href == "" {
		return models.Manga{}, false
	}
	if strings.HasPrefix(href, "/") {
		href = strings.TrimSuffix(sites.BaseURL, "/") + href
	}

	manga := models.Manga{Title: title, URL: href}

	author := strings.TrimSpace(li.Find(".row-3.gray").First().Text())
	manga.Author = strings.TrimSpace(strings.TrimPrefix(author, "Author:"))

	if genres := strings.TrimSpace(li.Find(".row-4.blue .gray").First().Text()); genres != "" {
		for _, g := range strings.Split(genres, ",") {
			if g = strings.TrimSpace(g); g != "" {
				manga.Genres = append(manga.Genres, g)
			}
		}
	}

	if latest := strings.TrimSpace(li.Find(".row-5.gray a.chico").First().Text()); latest != "" {
		if m := latestChapterRe.FindStringSubmatch(latest); m != nil {
			if n, err := strconv.ParseFloat(m[1], 64); err == nil {
				manga.TotalChapters = int(n)
			}
		}
	}
	return manga, true
}
