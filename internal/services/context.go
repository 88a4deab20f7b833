package services

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	folderKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithRunID tags ctx with the run identifier shared by logs, history rows
// and notifications of one classify or organize run.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, runIDKey)
}

// WithStage tags ctx with the pipeline stage ("run" or "organize").
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, stageKey)
}

// WithFolder tags ctx with the folder being classified or organized into.
func WithFolder(ctx context.Context, folder string) context.Context {
	return withValue(ctx, folderKey, folder)
}

// FolderFromContext returns the folder, if any.
func FolderFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, folderKey)
}
