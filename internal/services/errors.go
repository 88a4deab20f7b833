package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error kind markers. Every failure that crosses a package boundary carries
// exactly one of these so callers can branch with errors.Is instead of
// parsing message text.
var (
	ErrEnvironment    = errors.New("environment error")
	ErrIO             = errors.New("i/o error")
	ErrSchema         = errors.New("schema error")
	ErrWorkerSpawn    = errors.New("worker spawn error")
	ErrWorkerReported = errors.New("worker reported error")
	ErrCompletionLost = errors.New("completion signal lost")
	ErrValidation     = errors.New("validation error")
)

var kinds = []error{
	ErrEnvironment,
	ErrIO,
	ErrSchema,
	ErrWorkerSpawn,
	ErrWorkerReported,
	ErrCompletionLost,
	ErrValidation,
}

// Error is the structured failure returned by the supervisor, manifest store
// and reconciler. Kind is one of the exported markers above.
type Error struct {
	Kind      error
	Stage     string
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Path != "" {
		detail += " (" + e.Path + ")"
	}
	kind := e.Kind
	if kind == nil {
		kind = ErrIO
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", kind, detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", kind, detail)
}

// Unwrap exposes both the kind marker and the underlying cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrIO
	}
	return &Error{
		Kind:      marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// WrapPath is Wrap with the filesystem path the failure concerns.
func WrapPath(marker error, stage, operation, path, message string, err error) error {
	wrapped := Wrap(marker, stage, operation, message, err).(*Error)
	wrapped.Path = path
	return wrapped
}

// KindOf returns the marker carried by err, or nil when err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// PathOf returns the path recorded on the first *Error in err's chain.
func PathOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Path
	}
	return ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
