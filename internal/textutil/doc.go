// Package textutil provides filename sanitization helpers shared by the
// reconciler and the CLI.
//
// Group names come from an external classifier and may contain anything,
// including traversal sequences and characters that are reserved on common
// filesystems. SanitizeFolderName maps such a name to a single safe path
// segment; callers decide whether an empty result is acceptable.
package textutil
