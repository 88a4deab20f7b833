package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foldersort/internal/services"
)

func touch(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCountFilesRecursesAndFilters(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"), 10)
	touch(t, filepath.Join(root, "b.JPG"), 5)
	touch(t, filepath.Join(root, "notes.md"), 1)
	touch(t, filepath.Join(root, "nested", "deep", "c.docx"), 2)
	touch(t, filepath.Join(root, "nested", "script.py"), 2)
	touch(t, filepath.Join(root, "nested", "noext"), 2)
	touch(t, filepath.Join(root, "nested", "image.heic"), 3)

	got, err := CountFiles(root)
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	if got != 4 {
		t.Fatalf("CountFiles() = %d, want 4", got)
	}

	summary, err := Summarize(root)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Bytes != 20 {
		t.Fatalf("Summarize().Bytes = %d, want 20", summary.Bytes)
	}
	if summary.ByExtension["jpg"] != 1 || summary.ByExtension["pdf"] != 1 {
		t.Fatalf("unexpected breakdown %v", summary.ByExtension)
	}
}

func TestCountFilesEmptyFolder(t *testing.T) {
	got, err := CountFiles(t.TempDir())
	if err != nil || got != 0 {
		t.Fatalf("CountFiles() = %d, %v", got, err)
	}
}

func TestCountFilesMissingRoot(t *testing.T) {
	_, err := CountFiles(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("CountFiles() error = %v, want ErrIO", err)
	}
}

func TestCountFilesRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	touch(t, path, 1)
	if _, err := CountFiles(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("CountFiles() error = %v, want ErrValidation", err)
	}
}

func TestIsSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"a.pdf":       true,
		"A.PDF":       true,
		"photo.jpeg":  true,
		"archive.zip": false,
		"pdf":         false,
		".pdf":        false,
		"trailing.":   false,
		"dir.pdf/x":   false,
	} {
		if got := IsSupported(name); got != want {
			t.Fatalf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
	if len(Extensions()) != 33 {
		t.Fatalf("expected 33 extensions, got %d", len(Extensions()))
	}
}
