package worker

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"foldersort/internal/logging"
	"foldersort/internal/notifications"
	"foldersort/internal/services"
)

// Args are the worker's positional arguments.
type Args struct {
	Folder       string
	ManifestPath string
	// TreatTopLevelAsOne, when set, is passed as "true" or "false".
	TreatTopLevelAsOne *bool
}

// Argv returns the arguments in the order the worker expects them.
func (a Args) Argv() []string {
	argv := []string{a.Folder, a.ManifestPath}
	if a.TreatTopLevelAsOne != nil {
		argv = append(argv, strconv.FormatBool(*a.TreatTopLevelAsOne))
	}
	return argv
}

// Options configures a Supervisor.
type Options struct {
	Binary string
	// LockPath, when set, adds a cross-process file lock so separate
	// foldersort invocations share the single-worker rule.
	LockPath  string
	Sentinels []string
	Launcher  Launcher
	Notifier  notifications.Service
}

// Status describes the worker currently in flight.
type Status struct {
	RunID   string
	PID     int
	Folder  string
	Started time.Time
}

type handle struct {
	status  Status
	lock    *flock.Flock
	release sync.Once
}

// Supervisor owns the worker lifecycle. It is safe for concurrent use.
type Supervisor struct {
	binary   string
	lockPath string
	launcher Launcher
	mux      *Multiplexer
	logger   *slog.Logger

	// slot admits one worker at a time; running mirrors it for lock-free
	// status reads.
	slot    *semaphore.Weighted
	running atomic.Bool
	current atomic.Pointer[handle]
}

// NewSupervisor constructs a Supervisor.
func NewSupervisor(logger *slog.Logger, opts Options) *Supervisor {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = ProcessLauncher{}
	}
	return &Supervisor{
		binary:   strings.TrimSpace(opts.Binary),
		lockPath: strings.TrimSpace(opts.LockPath),
		launcher: launcher,
		mux:      NewMultiplexer(logger, NewClassifier(opts.Sentinels...), opts.Notifier),
		logger:   logging.NewComponentLogger(logger, "worker"),
		slot:     semaphore.NewWeighted(1),
	}
}

// Running reports whether a worker is in flight.
func (s *Supervisor) Running() bool {
	return s.running.Load()
}

// Current returns the in-flight worker, if any.
func (s *Supervisor) Current() (Status, bool) {
	h := s.current.Load()
	if h == nil {
		return Status{}, false
	}
	return h.status, true
}

// Run spawns the worker and blocks until it terminates, returning the run
// outcome. If a worker is already running, here or in another process
// holding the lock, Run returns nil immediately without spawning.
//
// ctx supplies logging fields only; cancelling it does not stop the worker
// or unblock Run.
func (s *Supervisor) Run(ctx context.Context, args Args) error {
	if strings.TrimSpace(args.Folder) == "" || strings.TrimSpace(args.ManifestPath) == "" {
		return services.Wrap(services.ErrValidation, "worker", "run", "Folder and manifest path are required", nil)
	}
	if s.binary == "" {
		return services.Wrap(services.ErrWorkerSpawn, "worker", "run", "No worker binary configured", nil)
	}
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, s.logger)

	if !s.slot.TryAcquire(1) {
		logger.Info("worker already running; skipping spawn")
		return nil
	}
	s.running.Store(true)

	h := &handle{}
	if s.lockPath != "" {
		lock := flock.New(s.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			s.release()
			return services.WrapPath(services.ErrEnvironment, "worker", "acquire lock", s.lockPath, "Cannot take worker lock", err)
		}
		if !locked {
			s.release()
			logger.Info("worker already running in another process; skipping spawn",
				logging.String("lock_path", s.lockPath))
			return nil
		}
		h.lock = lock
	}

	proc, err := s.launcher.Start(s.binary, args.Argv())
	if err != nil {
		s.clear(h)
		logging.ErrorWithContext(logger, "worker spawn failed", "worker_spawn_failed",
			logging.String("binary", s.binary),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check worker.binary in config or run foldersort status"),
		)
		return services.WrapPath(services.ErrWorkerSpawn, "worker", "spawn", s.binary, "Failed to spawn worker", err)
	}

	runID, _ := services.RunIDFromContext(ctx)
	h.status = Status{RunID: runID, PID: proc.PID, Folder: args.Folder, Started: time.Now()}
	s.current.Store(h)
	logger.Info("worker started",
		logging.Int("pid", proc.PID),
		logging.String("folder", args.Folder),
		logging.String("manifest", args.ManifestPath),
	)

	done := make(chan error, 1)
	go func() {
		outcome := s.mux.Drain(ctx, proc.Events)
		s.clear(h)
		done <- outcome
	}()

	outcome := <-done
	logger.Info("worker finished",
		logging.Duration("duration", time.Since(h.status.Started)),
		logging.Bool("success", outcome == nil),
	)
	return outcome
}

// clear drops the handle and the guard. It runs at most once per handle.
func (s *Supervisor) clear(h *handle) {
	h.release.Do(func() {
		s.current.CompareAndSwap(h, nil)
		if h.lock != nil {
			if err := h.lock.Unlock(); err != nil {
				s.logger.Warn("failed to release worker lock", logging.Error(err))
			}
		}
		s.release()
	})
}

func (s *Supervisor) release() {
	s.running.Store(false)
	s.slot.Release(1)
}
