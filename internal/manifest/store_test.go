package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"foldersort/internal/manifest"
	"foldersort/internal/services"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), manifest.FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestExpectedPath(t *testing.T) {
	got := manifest.ExpectedPath("/data/app")
	if got != "/data/app/Organization_Structure.json" {
		t.Fatalf("ExpectedPath() = %q", got)
	}
}

func TestReadLabelManifest(t *testing.T) {
	path := writeManifest(t, `[{"source_path":"/tmp/a.pdf","group_label":3},{"source_path":"/tmp/b.png","group_label":0}]`)

	entries, schema, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if schema != manifest.SchemaLabel {
		t.Fatalf("schema = %v, want label", schema)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourcePath != "/tmp/a.pdf" || !entries[0].Group.IsLabel || entries[0].Group.Label != 3 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].SourcePath != "/tmp/b.png" || entries[1].Group.Label != 0 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestReadNameManifest(t *testing.T) {
	path := writeManifest(t, `[{"source_path":"x.txt","group_name":"Invoices"}]`)
	entries, schema, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if schema != manifest.SchemaName || entries[0].Group.IsLabel || entries[0].Group.Name != "Invoices" {
		t.Fatalf("unexpected result: schema=%v entries=%+v", schema, entries)
	}
}

func TestReadAcceptsLegacyKeys(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		schema manifest.Schema
	}{
		{name: "worker output", body: `[{"path":"/in/a.pdf","label":7}]`, schema: manifest.SchemaLabel},
		{name: "cluster names", body: `[{"path":"/in/a.pdf","cluster_name":"Taxes"}]`, schema: manifest.SchemaName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, schema, err := manifest.Read(writeManifest(t, tc.body))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if schema != tc.schema {
				t.Fatalf("schema = %v, want %v", schema, tc.schema)
			}
			if entries[0].SourcePath != "/in/a.pdf" {
				t.Fatalf("unexpected source: %q", entries[0].SourcePath)
			}
		})
	}
}

func TestReadMissingFileIsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	_, _, err := manifest.Read(path)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("Read() error = %v, want ErrIO", err)
	}
	if errors.Is(err, services.ErrSchema) {
		t.Fatal("missing file must not be reported as schema error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying not-exist error, got %v", err)
	}
	if services.PathOf(err) != path {
		t.Fatalf("PathOf() = %q, want %q", services.PathOf(err), path)
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "not json", body: `{{`, want: "JSON array"},
		{name: "object", body: `{"source_path":"a"}`, want: "JSON array"},
		{name: "missing source", body: `[{"group_label":1}]`, want: "missing source_path"},
		{name: "empty source", body: `[{"source_path":"  ","group_label":1}]`, want: "empty source_path"},
		{name: "missing group", body: `[{"source_path":"a"}]`, want: "missing group_label"},
		{name: "string label", body: `[{"source_path":"a","group_label":"3"}]`, want: "integer"},
		{name: "fractional label", body: `[{"source_path":"a","group_label":1.5}]`, want: "integer"},
		{name: "both groups", body: `[{"source_path":"a","group_label":1,"group_name":"x"}]`, want: "both"},
		{name: "mixed schemas", body: `[{"source_path":"a","group_label":1},{"source_path":"b","group_name":"x"}]`, want: "entry 1"},
		{name: "array of scalars", body: `[1]`, want: "entry 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifest(t, tc.body)
			_, _, err := manifest.Read(path)
			if !errors.Is(err, services.ErrSchema) {
				t.Fatalf("Read() error = %v, want ErrSchema", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
			if services.PathOf(err) != path {
				t.Fatalf("expected manifest path on error, got %q", services.PathOf(err))
			}
		})
	}
}

func TestReadEmptyArray(t *testing.T) {
	entries, schema, err := manifest.Read(writeManifest(t, `[]`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 0 || schema != manifest.SchemaUnknown {
		t.Fatalf("unexpected result: %v %v", entries, schema)
	}
}

func TestWriteRoundTripsCanonicalKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", manifest.FileName)
	entries := []manifest.Entry{
		{SourcePath: "/in/a.pdf", Group: manifest.NameGroup("Taxes")},
		{SourcePath: "/in/b.pdf", Group: manifest.NameGroup("Letters")},
	}
	if err := manifest.Write(path, entries, manifest.SchemaName); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written manifest: %v", err)
	}
	if !strings.Contains(string(raw), `"group_name": "Taxes"`) {
		t.Fatalf("expected canonical keys, got %s", raw)
	}
	got, schema, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if schema != manifest.SchemaName || len(got) != 2 || got[1] != entries[1] {
		t.Fatalf("round trip mismatch: %v %+v", schema, got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".manifest-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestWriteRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.FileName)
	err := manifest.Write(path, []manifest.Entry{{SourcePath: "a", Group: manifest.NameGroup("x")}}, manifest.SchemaLabel)
	if !errors.Is(err, services.ErrSchema) {
		t.Fatalf("Write() error = %v, want ErrSchema", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("expected no manifest to be written")
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a := writeManifest(t, `[]`)
	b := writeManifest(t, `[{"source_path":"a","group_label":1}]`)
	da, err := manifest.Digest(a)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	db, err := manifest.Digest(b)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if da == db || len(da) != 64 {
		t.Fatalf("unexpected digests %q %q", da, db)
	}
}
