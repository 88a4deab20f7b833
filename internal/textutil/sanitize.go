package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// folderNameReplacer replaces traversal sequences, separators and reserved
// characters with underscores. ".." is listed first so it is consumed before
// the single-character rules see it.
var folderNameReplacer = strings.NewReplacer(
	"..", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFolderName converts a free-text group name into a single path
// segment. The name is NFC-normalised and trimmed, traversal sequences,
// separators, reserved characters and control characters become '_'.
// An empty string is returned unchanged.
func SanitizeFolderName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	name = folderNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

// IsOnlyUnderscores reports whether value is empty or consists solely of
// underscores, which is what a name made entirely of disallowed characters
// sanitizes to.
func IsOnlyUnderscores(value string) bool {
	return strings.Trim(value, "_") == ""
}
