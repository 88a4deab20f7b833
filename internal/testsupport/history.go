package testsupport

import (
	"path/filepath"
	"testing"

	"foldersort/internal/config"
	"foldersort/internal/history"
)

// MustOpenHistory opens a history.Store inside the config's app data
// directory and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(filepath.Join(cfg.Paths.AppDataDir, history.FileName))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
