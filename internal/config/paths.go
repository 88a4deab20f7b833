package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resolveConfigPath picks the file Load reads. An explicit path is used as
// given, existing or not. Otherwise the user config wins over a
// foldersort.toml in the working directory, and the user location is
// reported when neither exists.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, exists, nil
	}

	var candidates []string
	// A missing home directory only rules out the user config.
	if userPath, err := expandPath(defaultConfigRelativePath); err == nil {
		candidates = append(candidates, userPath)
	}
	projectPath, err := filepath.Abs(defaultProjectConfigFilename)
	if err != nil {
		return "", false, err
	}
	candidates = append(candidates, projectPath)

	for _, candidate := range candidates {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return candidates[0], false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return !info.IsDir(), nil
}

// expandPath resolves a leading "~" or "~/" against the home directory and
// returns a clean absolute path. Blank stays blank.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same expansion Load uses for configured paths.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}
