package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"foldersort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AppDataDir = filepath.Join(base, "appdata")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOperation sets the organize operation on the test config.
func WithOperation(op string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Operation = op
	}
}

// WithWorkerScript writes body as an executable shell script and points the
// worker binary at it.
func WithWorkerScript(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.Binary = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "worker", body)
	}
}

// WriteScript writes an executable /bin/sh script into dir and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir script dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return target
}
