package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"foldersort/internal/config"
	"foldersort/internal/history"
	"foldersort/internal/inventory"
	"foldersort/internal/logging"
	"foldersort/internal/manifest"
	"foldersort/internal/notifications"
	"foldersort/internal/reconcile"
	"foldersort/internal/services"
	"foldersort/internal/worker"
)

// notifyFlushTimeout bounds how long a command waits for pending
// notifications before exiting.
const notifyFlushTimeout = 5 * time.Second

type classifyRequest struct {
	Folder             string
	TreatTopLevelAsOne *bool
	SkipCountCheck     bool
}

type classifyResult struct {
	RunID        string
	ManifestPath string
	Duration     time.Duration
}

type organizeRequest struct {
	Destination string
	Operation   string
}

// session bundles what one command invocation needs to run the pipeline.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier *notifications.Tracked
	history  *history.Store
	appData  string
}

func (c *commandContext) newSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	appData, err := c.appDataDir()
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		logger:   logger,
		notifier: c.notifier(logger),
		history:  c.openHistory(logger),
		appData:  appData,
	}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), notifyFlushTimeout)
	defer cancel()
	if err := s.notifier.Wait(ctx); err != nil {
		s.logger.Debug("pending notifications abandoned", logging.Error(err))
	}
	if s.history != nil {
		_ = s.history.Close()
	}
}

func (s *session) manifestPath() string {
	return manifest.ExpectedPath(s.appData)
}

// classify runs the worker against the folder and waits for it to finish.
func (s *session) classify(ctx context.Context, req classifyRequest) (classifyResult, error) {
	folder, err := config.ExpandPath(req.Folder)
	if err != nil {
		return classifyResult{}, services.Wrap(services.ErrValidation, "run", "resolve folder", "Invalid folder path", err)
	}

	if !req.SkipCountCheck && s.cfg.Worker.MinFiles > 0 {
		count, err := inventory.CountFiles(folder)
		if err != nil {
			return classifyResult{}, err
		}
		if count < s.cfg.Worker.MinFiles {
			return classifyResult{}, services.WrapPath(services.ErrValidation, "run", "count files", folder,
				fmt.Sprintf("Folder has %d supported files; at least %d are required", count, s.cfg.Worker.MinFiles), nil)
		}
	}

	topLevel := req.TreatTopLevelAsOne
	if topLevel == nil && s.cfg.Worker.TreatTopLevelAsOne {
		enabled := true
		topLevel = &enabled
	}

	runID := uuid.NewString()
	ctx = services.WithFolder(services.WithStage(services.WithRunID(ctx, runID), "run"), folder)
	logger := logging.WithContext(ctx, s.logger)
	result := classifyResult{RunID: runID, ManifestPath: s.manifestPath()}

	if s.history != nil {
		if _, err := s.history.BeginRun(ctx, history.Run{
			ID:           runID,
			Kind:         history.KindClassify,
			Folder:       folder,
			ManifestPath: result.ManifestPath,
		}); err != nil {
			logger.Warn("record run start failed", logging.Error(err))
		}
	}

	opts := worker.Options{
		Binary:   s.cfg.WorkerBinary(),
		Notifier: s.notifier,
	}
	if s.cfg.Worker.CrossProcessLock {
		opts.LockPath = filepath.Join(s.appData, workerLockFile)
	}
	supervisor := worker.NewSupervisor(s.logger, opts)

	_ = s.notifier.Publish(ctx, notifications.EventRunStarted, notifications.Payload{"folder": folder})
	started := time.Now()
	runErr := supervisor.Run(ctx, worker.Args{
		Folder:             folder,
		ManifestPath:       result.ManifestPath,
		TreatTopLevelAsOne: topLevel,
	})
	result.Duration = time.Since(started)

	if s.history != nil {
		if runErr == nil {
			if digest, err := manifest.Digest(result.ManifestPath); err == nil {
				_ = s.history.SetManifestDigest(ctx, runID, digest)
			}
		}
		if err := s.history.FinishRun(ctx, runID, runErr, 0, 0); err != nil {
			logger.Warn("record run finish failed", logging.Error(err))
		}
	}

	if runErr != nil {
		s.publishError(ctx, "classification", runErr)
		return result, runErr
	}
	_ = s.notifier.Publish(ctx, notifications.EventRunCompleted, notifications.Payload{
		"folder":   folder,
		"duration": result.Duration,
	})
	logger.Info("classification finished",
		logging.String("manifest", result.ManifestPath),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// organize applies the current manifest to the destination.
func (s *session) organize(ctx context.Context, req organizeRequest) (reconcile.Report, error) {
	opName := req.Operation
	if opName == "" {
		opName = s.cfg.Organize.Operation
	}
	op, err := reconcile.ParseOperation(opName)
	if err != nil {
		return reconcile.Report{}, err
	}
	destination, err := config.ExpandPath(req.Destination)
	if err != nil {
		return reconcile.Report{}, services.Wrap(services.ErrValidation, "organize", "resolve destination", "Invalid destination path", err)
	}

	runID := uuid.NewString()
	ctx = services.WithFolder(services.WithStage(services.WithRunID(ctx, runID), "organize"), destination)
	logger := logging.WithContext(ctx, s.logger)
	manifestPath := s.manifestPath()

	entries, _, err := manifest.Read(manifestPath)
	if err != nil {
		s.publishError(ctx, "manifest", err)
		return reconcile.Report{}, err
	}

	if s.history != nil {
		digest, _ := manifest.Digest(manifestPath)
		if _, err := s.history.BeginRun(ctx, history.Run{
			ID:             runID,
			Kind:           history.KindOrganize,
			Destination:    destination,
			Operation:      op.String(),
			ManifestPath:   manifestPath,
			ManifestDigest: digest,
		}); err != nil {
			logger.Warn("record run start failed", logging.Error(err))
		}
	}

	reconciler := reconcile.New(s.logger, reconcile.Options{
		CollisionAttempts: s.cfg.Organize.CollisionAttempts,
		VerifyCopies:      s.cfg.Organize.VerifyCopies,
	})
	report, runErr := reconciler.Reconcile(ctx, entries, destination, op)

	if s.history != nil {
		if err := s.history.RecordPlacements(ctx, runID, historyPlacements(report)); err != nil {
			logger.Warn("record placements failed", logging.Error(err))
		}
		if err := s.history.FinishRun(ctx, runID, runErr, len(report.Placements), len(report.Skips)); err != nil {
			logger.Warn("record run finish failed", logging.Error(err))
		}
	}

	if runErr != nil {
		s.publishError(ctx, "organize", runErr)
		return report, runErr
	}
	_ = s.notifier.Publish(ctx, notifications.EventOrganizeCompleted, notifications.Payload{
		"operation":   op.String(),
		"destination": destination,
		"placed":      len(report.Placements),
		"skipped":     len(report.Skips),
	})
	logger.Info("organize finished",
		logging.String("destination", destination),
		logging.Int("placed", len(report.Placements)),
		logging.Int("skipped", len(report.Skips)),
		logging.String("bytes", humanize.IBytes(reportBytes(report))),
	)
	return report, nil
}

func (s *session) publishError(ctx context.Context, label string, err error) {
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorHint, errorHint(services.KindOf(err))),
	}
	if kind := services.KindOf(err); kind != nil {
		attrs = append(attrs, logging.String("error_kind", kind.Error()))
	}
	if path := services.PathOf(err); path != "" {
		attrs = append(attrs, logging.String("path", path))
	}
	logging.ErrorWithContext(logging.WithContext(ctx, s.logger), label+" failed", label+"_failed", attrs...)

	if pubErr := s.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": label,
		"error":   err,
	}); pubErr != nil {
		s.logger.Debug("error notification failed", logging.Error(pubErr))
	}
}

// errorHint maps a failure kind to the next thing the user should check.
func errorHint(kind error) string {
	switch kind {
	case services.ErrEnvironment:
		return "check HOME, XDG_DATA_HOME or paths.app_data_dir"
	case services.ErrIO:
		return "check the path in this entry exists and is writable"
	case services.ErrSchema:
		return "inspect the manifest with foldersort manifest show"
	case services.ErrWorkerSpawn:
		return "check worker.binary in config or run foldersort status"
	case services.ErrWorkerReported:
		return "read the worker's stderr lines above"
	case services.ErrCompletionLost:
		return "the worker exited without a status; rerun foldersort run"
	case services.ErrValidation:
		return "fix the reported input and retry"
	default:
		return "check foldersort.log for details"
	}
}

func historyPlacements(report reconcile.Report) []history.Placement {
	out := make([]history.Placement, 0, len(report.Placements)+len(report.Skips))
	for _, p := range report.Placements {
		out = append(out, history.Placement{
			Source:      p.Source,
			Destination: p.Destination,
			GroupFolder: p.GroupFolder,
			Collided:    p.Collided,
			Replaced:    p.Replaced,
			Digest:      fmt.Sprintf("%x", p.Digest),
		})
	}
	for _, skip := range report.Skips {
		out = append(out, history.Placement{Source: skip.Source, SkippedReason: skip.Reason})
	}
	return out
}

func reportBytes(report reconcile.Report) uint64 {
	var total uint64
	for _, p := range report.Placements {
		if info, err := os.Stat(p.Destination); err == nil {
			total += uint64(info.Size())
		}
	}
	return total
}
