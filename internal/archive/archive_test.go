package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeChapter(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img:"+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestChapterCBZ(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Chapter_3")
	writeChapter(t, dir, "002.jpg", "001.jpg", "003.jpg", "notes.txt")

	cbzPath, err := ChapterCBZ(dir, false)
	if err != nil {
		t.Fatalf("ChapterCBZ: %v", err)
	}
	if cbzPath != dir+".cbz" {
		t.Errorf("path = %q", cbzPath)
	}

	r, err := zip.OpenReader(cbzPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer r.Close()

	want := []string{"001.jpg", "002.jpg", "003.jpg"}
	if len(r.File) != len(want) {
		t.Fatalf("archive has %d entries, want %d", len(r.File), len(want))
	}
	for i, f := range r.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %q, want %q (page order)", i, f.Name, want[i])
		}
	}

	// Source images stay in place without deleteImages.
	if _, err := os.Stat(filepath.Join(dir, "001.jpg")); err != nil {
		t.Error("source images should survive")
	}
}

func TestChapterCBZDeleteImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Chapter_1")
	writeChapter(t, dir, "001.jpg")

	cbzPath, err := ChapterCBZ(dir, true)
	if err != nil {
		t.Fatalf("ChapterCBZ: %v", err)
	}
	if _, err := os.Stat(cbzPath); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("chapter directory should be removed")
	}
}

func TestChapterCBZEmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Chapter_9")
	writeChapter(t, dir)

	if _, err := ChapterCBZ(dir, false); err == nil {
		t.Fatal("expected error for chapter with no images")
	}
	if _, err := os.Stat(dir + ".cbz"); !os.IsNotExist(err) {
		t.Error("no archive should be left behind")
	}
}
