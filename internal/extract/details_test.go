package extract

import (
	"errors"
	"testing"

	"mangograb/internal/models"
)

const detailsFixture = `
<h1>Solo Ascent</h1>
<span class="author">Kim Writer</span>
<div class="genres"><a href="/genre/action/">Action</a><a href="/genre/fantasy/">Fantasy</a></div>
<img class="cover" src="/media/covers/solo.jpg">
<div class="manga_summary">A climber starts over <b>from floor one</b>.</div>
<div id="page"></div>`

func TestDetailsHandsSessionToCaller(t *testing.T) {
	mangaURL := "https://www.mangago.me/read-manga/solo_ascent/"
	sess := &fakeSession{docs: map[string]string{mangaURL: detailsFixture}}
	ex := newTestExtractor(sess)

	manga, open, err := ex.Details(mangaURL)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if open == nil {
		t.Fatal("expected open session on success")
	}
	if sess.closes != 0 {
		t.Fatalf("session closed %d times before handoff", sess.closes)
	}
	defer open.Close()

	if manga.Title != "Solo Ascent" {
		t.Errorf("title = %q", manga.Title)
	}
	if manga.Author != "Kim Writer" {
		t.Errorf("author = %q", manga.Author)
	}
	if len(manga.Genres) != 2 {
		t.Errorf("genres = %v", manga.Genres)
	}
	if manga.CoverURL != "https://www.mangago.me/media/covers/solo.jpg" {
		t.Errorf("cover = %q, want absolute", manga.CoverURL)
	}
	if manga.Summary != "A climber starts over from floor one." {
		t.Errorf("summary = %q", manga.Summary)
	}
	if manga.SummaryHTML == "" {
		t.Error("summary html not captured")
	}
}

func TestDetailsClosesSessionOnNavigateFailure(t *testing.T) {
	mangaURL := "https://www.mangago.me/read-manga/solo_ascent/"
	sess := &fakeSession{
		docs:   map[string]string{},
		navErr: map[string]error{mangaURL: errors.New("dns failure")},
	}
	ex := newTestExtractor(sess)

	_, open, err := ex.Details(mangaURL)
	if err == nil {
		t.Fatal("expected error")
	}
	if open != nil {
		t.Fatal("session must not be returned with an error")
	}
	var netErr *models.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error type = %T", err)
	}
	if sess.closes != 1 {
		t.Errorf("session closed %d times, want 1", sess.closes)
	}
}

func TestDetailsMissingFieldsDegrade(t *testing.T) {
	mangaURL := "https://www.mangago.me/read-manga/mystery/"
	sess := &fakeSession{docs: map[string]string{mangaURL: `<body><p>nothing here</p></body>`}}
	ex := newTestExtractor(sess)

	manga, open, err := ex.Details(mangaURL)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	defer open.Close()

	if manga.Title != "Unknown Title" {
		t.Errorf("title = %q, want placeholder", manga.Title)
	}
	if manga.URL != mangaURL {
		t.Errorf("url = %q", manga.URL)
	}
	if manga.Author != "" || manga.CoverURL != "" || len(manga.Genres) != 0 {
		t.Errorf("expected zero-value fields, got %+v", manga)
	}
}
