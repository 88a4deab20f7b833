package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

const (
	eventBuffer   = 64
	maxLineLength = 1024 * 1024
)

// Process is a started worker.
type Process struct {
	PID    int
	Events <-chan Event
}

// Launcher starts the worker binary. Implementations must deliver every
// output line on Events and finish with exactly one EventTerminated before
// closing the channel.
type Launcher interface {
	Start(binary string, args []string) (Process, error)
}

// ProcessLauncher starts the worker as a child process.
type ProcessLauncher struct {
	// Env, when set, replaces the child's environment.
	Env []string
	// Dir is the child's working directory.
	Dir string
}

// Start spawns binary with args. The process is not tied to any context:
// it runs until it exits on its own.
func (l ProcessLauncher) Start(binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Env = l.Env
	cmd.Dir = l.Dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Process{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Process{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Process{}, fmt.Errorf("start command: %w", err)
	}

	events := make(chan Event, eventBuffer)
	var wg sync.WaitGroup

	scan := func(r io.Reader, build func(string) Event) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
		for scanner.Scan() {
			events <- build(scanner.Text())
		}
		// Keep the pipe drained so an oversized line cannot stall the child.
		_, _ = io.Copy(io.Discard, r)
	}

	wg.Add(2)
	go scan(stdout, Stdout)
	go scan(stderr, Stderr)

	go func() {
		defer close(events)
		wg.Wait()
		waitErr := cmd.Wait()
		code, ok := exitStatus(waitErr)
		if !ok {
			// Without an exit status there is nothing truthful to report;
			// closing the stream surfaces a lost completion.
			return
		}
		events <- Terminated(code)
	}()

	return Process{PID: cmd.Process.Pid, Events: events}, nil
}

// exitStatus converts a Wait result into an exit code. A nil code means the
// process ended without one (killed by a signal). ok is false when Wait
// failed for a reason other than process exit.
func exitStatus(waitErr error) (code *int, ok bool) {
	if waitErr == nil {
		return ExitCode(0), true
	}
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return nil, false
	}
	if c := exitErr.ExitCode(); c >= 0 {
		return ExitCode(c), true
	}
	return nil, true
}
