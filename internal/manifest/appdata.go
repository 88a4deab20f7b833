package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"foldersort/internal/config"
	"foldersort/internal/services"
)

// AppID names the per-user data directory.
const AppID = "foldersort"

// ResolveAppDataDir returns the application data directory. An explicit
// override wins; otherwise $XDG_DATA_HOME/foldersort, falling back to
// ~/.local/share/foldersort. Failure to determine a location is an
// environment error.
func ResolveAppDataDir(override string) (string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		expanded, err := config.ExpandPath(trimmed)
		if err != nil {
			return "", services.WrapPath(services.ErrEnvironment, "manifest", "resolve app data dir", trimmed, "Cannot expand configured app data directory", err)
		}
		return expanded, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, AppID), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", services.Wrap(services.ErrEnvironment, "manifest", "resolve app data dir", "Cannot determine home directory", err)
	}
	return filepath.Join(home, ".local", "share", AppID), nil
}

// EnsureAppDataDir resolves the application data directory and creates it.
func EnsureAppDataDir(override string) (string, error) {
	dir, err := ResolveAppDataDir(override)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.WrapPath(services.ErrEnvironment, "manifest", "create app data dir", dir, "Cannot create app data directory", err)
	}
	return dir, nil
}
