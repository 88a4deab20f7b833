// Package history records classification and organize runs in SQLite.
//
// The database lives next to the manifest in the application data directory.
// Each run row is inserted when the run starts and updated when it finishes;
// organize runs also record every placement so a user can see where a file
// went. The schema is versioned; a mismatch is reported rather than migrated.
package history
