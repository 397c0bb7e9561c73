package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"mangograb/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url, referer string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if referer == "" {
		return nil, errors.New("missing referer")
	}
	if f.fail[url] {
		return nil, errors.New("503 service unavailable")
	}
	return []byte("jpeg:" + url), nil
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func chapter(num float64, urls ...string) *models.Chapter {
	return &models.Chapter{
		Number:    num,
		URL:       fmt.Sprintf("https://www.mangago.me/read-manga/solo_ascent/mf/c.%s/", (&models.Chapter{Number: num}).OrdinalLabel()),
		ImageURLs: urls,
	}
}

func TestRunWritesChapterLayout(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	coord := New(fetcher, Config{Root: root, Workers: 2})

	chapters := []*models.Chapter{
		chapter(1, "https://img.example/1/a.jpg", "https://img.example/1/b.jpg"),
		chapter(10.5, "https://img.example/105/a.jpg"),
	}

	results, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, res := range results {
		if !res.Success {
			t.Errorf("result %d failed: %s", i, res.ErrorMessage)
		}
	}

	wantFiles := []string{
		filepath.Join(root, "Solo Ascent", "Chapter_1", "001.jpg"),
		filepath.Join(root, "Solo Ascent", "Chapter_1", "002.jpg"),
		filepath.Join(root, "Solo Ascent", "Chapter_10.5", "001.jpg"),
	}
	for _, path := range wantFiles {
		body, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("missing %s: %v", path, err)
		}
		if len(body) == 0 {
			t.Errorf("%s is empty", path)
		}
	}
	if results[0].Path != filepath.Join(root, "Solo Ascent", "Chapter_1") {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].ImagesDownloaded != 2 {
		t.Errorf("images downloaded = %d, want 2", results[0].ImagesDownloaded)
	}
}

func TestRunSkipsExistingFiles(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	coord := New(fetcher, Config{Root: root, Workers: 1})
	chapters := []*models.Chapter{chapter(2, "https://img.example/2/a.jpg", "https://img.example/2/b.jpg")}

	if _, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if fetcher.total() != 2 {
		t.Fatalf("first run fetched %d assets, want 2", fetcher.total())
	}

	results, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if fetcher.total() != 2 {
		t.Errorf("second run re-fetched existing files, total = %d", fetcher.total())
	}
	// Files already on disk still count toward the chapter total.
	if !results[0].Success || results[0].ImagesDownloaded != 2 {
		t.Errorf("second run result = %+v", results[0])
	}
}

func TestRunIsolatesChapterFailures(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	coord := New(fetcher, Config{Root: root, Workers: 3})

	empty := chapter(3)
	chapters := []*models.Chapter{
		chapter(1, "https://img.example/1/a.jpg"),
		empty,
		chapter(4, "https://img.example/4/a.jpg"),
	}

	results, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want one per chapter", len(results))
	}
	if results[0].Chapter.Number != 1 || results[1].Chapter.Number != 3 || results[2].Chapter.Number != 4 {
		t.Fatalf("results out of input order: %+v", results)
	}
	if results[1].Success {
		t.Error("chapter with no assets must fail")
	}
	if results[1].ErrorMessage == "" {
		t.Error("failed chapter must carry a message")
	}
	if !results[0].Success || !results[2].Success {
		t.Error("healthy chapters must not be affected by a failing sibling")
	}
	if _, err := os.Stat(filepath.Join(root, "Solo Ascent", "Chapter_3")); !os.IsNotExist(err) {
		t.Error("no directory should be created for a chapter with no assets")
	}
}

func TestRunSwallowsAssetFailures(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.fail["https://img.example/1/b.jpg"] = true
	coord := New(fetcher, Config{Root: root, Workers: 1})

	chapters := []*models.Chapter{
		chapter(1, "https://img.example/1/a.jpg", "https://img.example/1/b.jpg", "https://img.example/1/c.jpg"),
	}
	results, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if !res.Success {
		t.Fatalf("chapter should succeed with partial images: %s", res.ErrorMessage)
	}
	if res.ImagesDownloaded != 2 {
		t.Errorf("images downloaded = %d, want 2", res.ImagesDownloaded)
	}
	// The slot of the failed asset stays empty rather than shifting later
	// pages forward.
	if _, err := os.Stat(filepath.Join(root, "Solo Ascent", "Chapter_1", "002.jpg")); !os.IsNotExist(err) {
		t.Error("failed asset should leave its numbered slot empty")
	}
	if _, err := os.Stat(filepath.Join(root, "Solo Ascent", "Chapter_1", "003.jpg")); err != nil {
		t.Error("asset after a failure should keep its original number")
	}
}

func TestRunSucceedsWithZeroImages(t *testing.T) {
	root := t.TempDir()
	fetcher := newFakeFetcher()
	fetcher.fail["https://img.example/1/a.jpg"] = true
	fetcher.fail["https://img.example/1/b.jpg"] = true
	coord := New(fetcher, Config{Root: root, Workers: 1})

	chapters := []*models.Chapter{
		chapter(1, "https://img.example/1/a.jpg", "https://img.example/1/b.jpg"),
	}
	results, err := coord.Run(context.Background(), "Solo Ascent", chapters, Progress{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	// Asset failures never fail the chapter: the directory was created, so
	// the outcome is success with a reduced count, down to zero.
	if !res.Success {
		t.Fatalf("chapter should succeed even with no images: %s", res.ErrorMessage)
	}
	if res.ImagesDownloaded != 0 {
		t.Errorf("images downloaded = %d, want 0", res.ImagesDownloaded)
	}
	if res.ErrorMessage != "" {
		t.Errorf("error message = %q, want empty", res.ErrorMessage)
	}
	if res.Path != filepath.Join(root, "Solo Ascent", "Chapter_1") {
		t.Errorf("path = %q", res.Path)
	}
}

func TestRunReportsProgress(t *testing.T) {
	root := t.TempDir()
	coord := New(newFakeFetcher(), Config{Root: root, Workers: 1})
	chapters := []*models.Chapter{chapter(1, "https://img.example/1/a.jpg", "https://img.example/1/b.jpg")}

	var assetTicks, chapterTicks int
	progress := Progress{
		OnAsset:   func(_ *models.Chapter, _, _ int) { assetTicks++ },
		OnChapter: func(models.DownloadResult) { chapterTicks++ },
	}
	if _, err := coord.Run(context.Background(), "Solo Ascent", chapters, progress); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if assetTicks != 2 {
		t.Errorf("asset ticks = %d, want 2", assetTicks)
	}
	if chapterTicks != 1 {
		t.Errorf("chapter ticks = %d, want 1", chapterTicks)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Solo Ascent", "Solo Ascent"},
		{"Some/Title: 2024", "Some_Title_ 2024"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"", "untitled"},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTitleLongMultibyte(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("漫", 100))
	if len(got) > 255 {
		t.Errorf("length = %d bytes, want <= 255", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
	// 255/3 bytes per rune: the cap lands mid-rune and must back off.
	if utf8.RuneCountInString(got) != 85 {
		t.Errorf("rune count = %d, want 85", utf8.RuneCountInString(got))
	}
}
