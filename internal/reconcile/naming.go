package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"foldersort/internal/manifest"
	"foldersort/internal/services"
	"foldersort/internal/textutil"
)

// GroupFolderName returns the folder name for group: label_<N> for numeric
// labels, the sanitized name otherwise.
func GroupFolderName(group manifest.Group) (string, error) {
	if group.IsLabel {
		return "label_" + strconv.Itoa(group.Label), nil
	}
	return SanitizeGroupName(group.Name)
}

// SanitizeGroupName converts a free-text group name into a folder name that
// cannot escape the destination root. A name that is empty, made only of
// disallowed characters, or made only of dots (which resolves to the root
// itself) is rejected rather than renamed.
func SanitizeGroupName(name string) (string, error) {
	sanitized := textutil.SanitizeFolderName(name)
	if textutil.IsOnlyUnderscores(sanitized) || strings.Trim(sanitized, "._") == "" {
		return "", services.Wrap(services.ErrValidation, "organize", "sanitize group name",
			fmt.Sprintf("cluster name %q rejected", name), nil)
	}
	return sanitized, nil
}

// nextFreePath returns target when nothing exists there, otherwise the first
// name_<n>.ext alongside it that is free, probing at most maxAttempts
// suffixes. When every probe collides the original target is returned and
// exhausted is true.
func nextFreePath(target string, maxAttempts int) (path string, collided, exhausted bool, err error) {
	free, err := isFree(target)
	if err != nil {
		return "", false, false, err
	}
	if free {
		return target, false, false, nil
	}

	dir := filepath.Dir(target)
	base := filepath.Base(target)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, attempt, ext))
		free, err := isFree(candidate)
		if err != nil {
			return "", true, false, err
		}
		if free {
			return candidate, true, false, nil
		}
	}
	return target, true, true, nil
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}
