package reconcile

import (
	"fmt"
	"strings"

	"foldersort/internal/services"
)

// Operation selects how a source file reaches its group folder.
type Operation int

const (
	// Move relocates the source file.
	Move Operation = iota
	// Copy duplicates the source file and leaves it in place.
	Copy
)

func (o Operation) String() string {
	switch o {
	case Move:
		return "move"
	case Copy:
		return "copy"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// ParseOperation converts "move" or "copy" (case-insensitive) to an Operation.
func ParseOperation(value string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "move", "":
		return Move, nil
	case "copy":
		return Copy, nil
	default:
		return Move, services.Wrap(services.ErrValidation, "organize", "parse operation", fmt.Sprintf("unsupported operation %q", value), nil)
	}
}
