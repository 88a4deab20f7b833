package preflight

import (
	"context"

	"foldersort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Targets names the directories a status report should cover.
type Targets struct {
	AppDataDir  string
	Destination string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckWorker(cfg)}

	if targets.AppDataDir != "" {
		results = append(results, CheckDirectoryAccess("App data directory", targets.AppDataDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if targets.Destination != "" {
		results = append(results,
			CheckDirectoryAccess("Destination", targets.Destination),
			CheckFreeSpace("Destination free space", targets.Destination, MinFreeBytes),
		)
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}
