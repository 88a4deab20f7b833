package manifest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"foldersort/internal/fileutil"
	"foldersort/internal/services"
)

// rawEntry accepts both the canonical keys and the worker's legacy ones.
type rawEntry struct {
	SourcePath  *string          `json:"source_path"`
	Path        *string          `json:"path"`
	GroupLabel  *json.RawMessage `json:"group_label"`
	Label       *json.RawMessage `json:"label"`
	GroupName   *string          `json:"group_name"`
	ClusterName *string          `json:"cluster_name"`
}

type labelEntry struct {
	SourcePath string `json:"source_path"`
	GroupLabel int    `json:"group_label"`
}

type nameEntry struct {
	SourcePath string `json:"source_path"`
	GroupName  string `json:"group_name"`
}

// Read loads the manifest at path. A missing or unreadable file is an I/O
// error; malformed content is a schema error naming the offending entry.
func Read(path string) ([]Entry, Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		message := "Cannot read manifest"
		if errors.Is(err, fs.ErrNotExist) {
			message = "Manifest not found"
		}
		return nil, SchemaUnknown, services.WrapPath(services.ErrIO, "manifest", "read", path, message, err)
	}
	entries, schema, err := Parse(data)
	if err != nil {
		var se *services.Error
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, SchemaUnknown, err
	}
	return entries, schema, nil
}

// Parse decodes manifest JSON.
func Parse(data []byte) ([]Entry, Schema, error) {
	var raws []json.RawMessage
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raws); err != nil {
		return nil, SchemaUnknown, services.Wrap(services.ErrSchema, "manifest", "parse", "Manifest is not a JSON array", err)
	}
	if decoder.More() {
		return nil, SchemaUnknown, services.Wrap(services.ErrSchema, "manifest", "parse", "Trailing data after manifest array", nil)
	}

	entries := make([]Entry, 0, len(raws))
	schema := SchemaUnknown
	for idx, raw := range raws {
		entry, entrySchema, err := parseEntry(raw)
		if err != nil {
			return nil, SchemaUnknown, services.Wrap(services.ErrSchema, "manifest", "parse", fmt.Sprintf("entry %d", idx), err)
		}
		if schema == SchemaUnknown {
			schema = entrySchema
		} else if schema != entrySchema {
			return nil, SchemaUnknown, services.Wrap(services.ErrSchema, "manifest", "parse",
				fmt.Sprintf("entry %d uses %s groups in a %s manifest", idx, entrySchema, schema), nil)
		}
		entries = append(entries, entry)
	}
	return entries, schema, nil
}

func parseEntry(raw json.RawMessage) (Entry, Schema, error) {
	var r rawEntry
	if err := json.Unmarshal(raw, &r); err != nil {
		return Entry{}, SchemaUnknown, fmt.Errorf("not an object: %w", err)
	}

	source := firstString(r.SourcePath, r.Path)
	if source == nil {
		return Entry{}, SchemaUnknown, errors.New("missing source_path")
	}
	if strings.TrimSpace(*source) == "" {
		return Entry{}, SchemaUnknown, errors.New("empty source_path")
	}

	labelRaw := r.GroupLabel
	if labelRaw == nil {
		labelRaw = r.Label
	}
	name := firstString(r.GroupName, r.ClusterName)

	switch {
	case labelRaw != nil && name != nil:
		return Entry{}, SchemaUnknown, errors.New("both group label and group name present")
	case labelRaw != nil:
		var label int
		if err := json.Unmarshal(*labelRaw, &label); err != nil {
			return Entry{}, SchemaUnknown, fmt.Errorf("group_label must be an integer: %w", err)
		}
		return Entry{SourcePath: *source, Group: LabelGroup(label)}, SchemaLabel, nil
	case name != nil:
		return Entry{SourcePath: *source, Group: NameGroup(*name)}, SchemaName, nil
	default:
		return Entry{}, SchemaUnknown, errors.New("missing group_label or group_name")
	}
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// Encode renders entries using the canonical keys for schema.
func Encode(entries []Entry, schema Schema) ([]byte, error) {
	var payload any
	switch schema {
	case SchemaLabel:
		out := make([]labelEntry, 0, len(entries))
		for idx, e := range entries {
			if !e.Group.IsLabel {
				return nil, services.Wrap(services.ErrSchema, "manifest", "encode", fmt.Sprintf("entry %d is not a label group", idx), nil)
			}
			out = append(out, labelEntry{SourcePath: e.SourcePath, GroupLabel: e.Group.Label})
		}
		payload = out
	case SchemaName:
		out := make([]nameEntry, 0, len(entries))
		for idx, e := range entries {
			if e.Group.IsLabel {
				return nil, services.Wrap(services.ErrSchema, "manifest", "encode", fmt.Sprintf("entry %d is not a name group", idx), nil)
			}
			out = append(out, nameEntry{SourcePath: e.SourcePath, GroupName: e.Group.Name})
		}
		payload = out
	default:
		if len(entries) > 0 {
			return nil, services.Wrap(services.ErrSchema, "manifest", "encode", "Unknown schema for non-empty manifest", nil)
		}
		payload = []labelEntry{}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrSchema, "manifest", "encode", "Cannot encode manifest", err)
	}
	return append(data, '\n'), nil
}

// Write stores entries at path atomically.
func Write(path string, entries []Entry, schema Schema) error {
	data, err := Encode(entries, schema)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.WrapPath(services.ErrIO, "manifest", "write", dir, "Cannot create manifest directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return services.WrapPath(services.ErrIO, "manifest", "write", path, "Cannot create temporary manifest", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return services.WrapPath(services.ErrIO, "manifest", "write", path, "Cannot write manifest", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return services.WrapPath(services.ErrIO, "manifest", "write", path, "Cannot write manifest", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return services.WrapPath(services.ErrIO, "manifest", "write", path, "Cannot replace manifest", err)
	}
	return nil
}

// Digest returns the hex BLAKE3 digest of the manifest file at path.
func Digest(path string) (string, error) {
	sum, err := fileutil.Digest(path)
	if err != nil {
		return "", services.WrapPath(services.ErrIO, "manifest", "digest", path, "Cannot read manifest", err)
	}
	return hex.EncodeToString(sum), nil
}
