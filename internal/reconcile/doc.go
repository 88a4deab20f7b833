// Package reconcile applies a group-assignment manifest to the filesystem.
//
// For each manifest entry, in order, the Reconciler creates the group folder
// under the destination root and moves or copies the source file into it.
// Existing files are never overwritten: colliding names receive a numeric
// suffix. A vanished source is skipped with a warning; any other failure
// aborts the batch and leaves earlier placements where they are.
package reconcile
