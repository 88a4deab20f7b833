// Package deps locates the external worker program foldersort runs.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrNotConfigured means the command string is blank.
	ErrNotConfigured = errors.New("command not configured")
	// ErrNotFound means neither PATH nor the filesystem has the command.
	ErrNotFound = errors.New("not found")
	// ErrNotExecutable means the command names a regular file without the
	// execute bit.
	ErrNotExecutable = errors.New("not executable")
)

// Resolve returns the absolute location of command. Bare names are searched
// on PATH; anything containing a separator must point at an executable file.
func Resolve(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", ErrNotConfigured
	}
	resolved, err := exec.LookPath(command)
	if err == nil {
		return resolved, nil
	}
	if info, statErr := os.Stat(command); statErr == nil && info.Mode().IsRegular() {
		return "", fmt.Errorf("binary %q is %w", command, ErrNotExecutable)
	}
	return "", fmt.Errorf("binary %q %w", command, ErrNotFound)
}
