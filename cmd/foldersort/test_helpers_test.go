package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"foldersort/internal/config"
	"foldersort/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	inputDir   string
	destDir    string
}

// labelWorker writes a label manifest that puts .jpg files in group 0 and
// everything else in group 1.
const labelWorker = `out="$2"
printf '[' > "$out"
sep=""
for f in "$1"/*; do
  case "$f" in
    *.jpg) label=0 ;;
    *) label=1 ;;
  esac
  printf '%s{"path": "%s", "label": %d}' "$sep" "$f" "$label" >> "$out"
  sep=","
done
printf ']' >> "$out"
echo "classified $1"`

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("FOLDERSORT_APP_DATA_DIR", "")
	t.Setenv("FOLDERSORT_WORKER_BINARY", "")
	t.Setenv("FOLDERSORT_NTFY_TOPIC", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		inputDir:   filepath.Join(base, "input"),
		destDir:    filepath.Join(base, "sorted"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	return env
}

func (e *cliTestEnv) seedInput(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(e.inputDir, name), 64)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
