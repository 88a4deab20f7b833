package worker

import "fmt"

// EventKind distinguishes worker output events.
type EventKind int

const (
	// EventStdout is one line of standard output.
	EventStdout EventKind = iota
	// EventStderr is one line of standard error.
	EventStderr
	// EventTerminated reports process exit. It is the last event of a run.
	EventTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one item of the worker's merged output stream.
type Event struct {
	Kind EventKind
	Line string
	// ExitCode is set on EventTerminated when the process exited normally.
	// It is nil when the process was killed by a signal.
	ExitCode *int
}

// Stdout builds a stdout event.
func Stdout(line string) Event { return Event{Kind: EventStdout, Line: line} }

// Stderr builds a stderr event.
func Stderr(line string) Event { return Event{Kind: EventStderr, Line: line} }

// Terminated builds a termination event. A nil code means no exit status.
func Terminated(code *int) Event { return Event{Kind: EventTerminated, ExitCode: code} }

// ExitCode returns a pointer to code, for building Terminated events.
func ExitCode(code int) *int { return &code }
