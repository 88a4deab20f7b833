package manifest

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// FileName is the manifest filename inside the application data directory.
const FileName = "Organization_Structure.json"

// Schema identifies which group representation a manifest uses.
type Schema int

const (
	// SchemaUnknown is reported for an empty manifest.
	SchemaUnknown Schema = iota
	// SchemaLabel manifests assign numeric labels.
	SchemaLabel
	// SchemaName manifests assign free-text group names.
	SchemaName
)

func (s Schema) String() string {
	switch s {
	case SchemaLabel:
		return "label"
	case SchemaName:
		return "name"
	default:
		return "unknown"
	}
}

// Group is the group an entry belongs to. Exactly one of Label or Name is
// meaningful, selected by IsLabel.
type Group struct {
	Label   int
	Name    string
	IsLabel bool
}

// LabelGroup returns a numeric-label group.
func LabelGroup(label int) Group {
	return Group{Label: label, IsLabel: true}
}

// NameGroup returns a free-text group.
func NameGroup(name string) Group {
	return Group{Name: name}
}

func (g Group) String() string {
	if g.IsLabel {
		return strconv.Itoa(g.Label)
	}
	return g.Name
}

// Entry assigns one source file to a group.
type Entry struct {
	SourcePath string
	Group      Group
}

func (e Entry) String() string {
	return fmt.Sprintf("%s -> %s", e.SourcePath, e.Group)
}

// ExpectedPath returns the manifest location under the application data root.
func ExpectedPath(appDataRoot string) string {
	return filepath.Join(appDataRoot, FileName)
}
