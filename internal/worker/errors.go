package worker

import "fmt"

// SentinelError is the failure recorded when the worker writes a sentinel
// phrase to stderr.
type SentinelError struct {
	Phrase string
}

func (e *SentinelError) Error() string {
	return e.Phrase
}

// ExitError is the failure recorded when the worker exits with a non-zero
// status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with non-zero status: %d", e.Code)
}
