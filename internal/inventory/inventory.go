// Package inventory counts the files a classification run would consider.
package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"foldersort/internal/services"
)

// supportedExtensions are the document and image formats the worker reads.
var supportedExtensions = map[string]struct{}{}

func init() {
	for _, ext := range []string{
		"pdf", "docx", "txt", "doc", "tex", "epub",
		"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp", "ico",
		"heif", "heic", "avif", "eps", "dds", "dis", "im", "mpo", "msp",
		"pxc", "pfm", "ppm", "tga", "spider", "sgi", "xbm", "psd", "svg",
	} {
		supportedExtensions[ext] = struct{}{}
	}
}

// Extensions returns the supported extensions without leading dots.
func Extensions() []string {
	out := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		out = append(out, ext)
	}
	return out
}

// IsSupported reports whether name has a supported extension. Matching is
// case-insensitive.
func IsSupported(name string) bool {
	base := filepath.Base(name)
	dot := strings.LastIndex(base, ".")
	// A leading dot marks a hidden file, not an extension.
	if dot <= 0 || dot == len(base)-1 {
		return false
	}
	_, ok := supportedExtensions[strings.ToLower(base[dot+1:])]
	return ok
}

// Summary describes a counted folder.
type Summary struct {
	Files int
	Bytes int64
	// ByExtension counts supported files per lowercase extension.
	ByExtension map[string]int
}

// CountFiles recursively counts supported files below root. Unreadable
// subdirectories are skipped; an unreadable root is an I/O error.
func CountFiles(root string) (int, error) {
	summary, err := Summarize(root)
	if err != nil {
		return 0, err
	}
	return summary.Files, nil
}

// Summarize is CountFiles with sizes and a per-extension breakdown.
func Summarize(root string) (Summary, error) {
	summary := Summary{ByExtension: map[string]int{}}
	info, err := os.Stat(root)
	if err != nil {
		return summary, services.WrapPath(services.ErrIO, "inventory", "count files", root, "Cannot read folder", err)
	}
	if !info.IsDir() {
		return summary, services.WrapPath(services.ErrValidation, "inventory", "count files", root, "Not a directory", nil)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !IsSupported(d.Name()) {
			return nil
		}
		// Follow symlinks the same way a directory listing would.
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			return nil
		}
		summary.Files++
		summary.Bytes += fi.Size()
		summary.ByExtension[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]++
		return nil
	})
	if err != nil {
		return summary, services.WrapPath(services.ErrIO, "inventory", "count files", root, "Cannot walk folder", err)
	}
	return summary, nil
}
