// Package archive packs downloaded chapter directories into CBZ comic
// archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ChapterCBZ zips the image files of chapterDir into a sibling
// <chapterDir>.cbz and returns the archive path. Entries are stored in
// filename order, which matches page order for the zero-padded names the
// downloader writes. With deleteImages the source directory is removed
// after the archive is written.
func ChapterCBZ(chapterDir string, deleteImages bool) (string, error) {
	images, err := listImages(chapterDir)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no images in %s", chapterDir)
	}

	cbzPath := chapterDir + ".cbz"
	out, err := os.Create(cbzPath)
	if err != nil {
		return "", err
	}

	zw := zip.NewWriter(out)
	for _, name := range images {
		if err := addEntry(zw, chapterDir, name); err != nil {
			zw.Close()
			out.Close()
			os.Remove(cbzPath)
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(cbzPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(cbzPath)
		return "", err
	}

	if deleteImages {
		if err := os.RemoveAll(chapterDir); err != nil {
			return cbzPath, fmt.Errorf("archive written but cleanup failed: %w", err)
		}
	}
	return cbzPath, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	images := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp", ".gif":
			images = append(images, entry.Name())
		}
	}
	sort.Strings(images)
	return images, nil
}

func addEntry(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer src.Close()

	// Images are already compressed; Store keeps archiving fast.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
