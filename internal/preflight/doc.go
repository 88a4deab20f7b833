// Package preflight provides readiness checks for the worker binary and the
// filesystem paths foldersort depends on.
//
// The CLI "foldersort status" command runs RunAll and renders the results.
// The run and organize commands call individual checks before doing work so
// a missing binary or unwritable destination is reported up front.
package preflight
