package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"foldersort/internal/fileutil"
	"foldersort/internal/logging"
	"foldersort/internal/manifest"
	"foldersort/internal/services"
)

// DefaultCollisionAttempts bounds the suffix search for a free filename.
const DefaultCollisionAttempts = 10000

// Placement records one relocated file.
type Placement struct {
	Source      string
	Destination string
	GroupFolder string
	Collided    bool
	Replaced    bool
	CrossDevice bool
	Digest      []byte
}

// Skip records an entry that was left untouched.
type Skip struct {
	Source string
	Reason string
}

// Report lists the outcome of every processed entry in manifest order.
type Report struct {
	Operation  Operation
	Placements []Placement
	Skips      []Skip
	Groups     []string
}

// Options configures a Reconciler.
type Options struct {
	// CollisionAttempts bounds the suffix probe. Zero uses the default.
	CollisionAttempts int
	// VerifyCopies checks copied bytes with a BLAKE3 digest.
	VerifyCopies bool
}

// Reconciler relocates manifest entries into group folders.
type Reconciler struct {
	logger      *slog.Logger
	maxAttempts int
	verify      bool
}

// New constructs a Reconciler.
func New(logger *slog.Logger, opts Options) *Reconciler {
	attempts := opts.CollisionAttempts
	if attempts <= 0 {
		attempts = DefaultCollisionAttempts
	}
	return &Reconciler{
		logger:      logging.NewComponentLogger(logger, "organizer"),
		maxAttempts: attempts,
		verify:      opts.VerifyCopies,
	}
}

// Reconcile processes entries in order. Missing sources are skipped; any other
// failure is returned with the report of what was already placed.
func (r *Reconciler) Reconcile(ctx context.Context, entries []manifest.Entry, destRoot string, op Operation) (Report, error) {
	report := Report{Operation: op}
	if op != Move && op != Copy {
		return report, services.Wrap(services.ErrValidation, "organize", "reconcile", fmt.Sprintf("unsupported operation %s", op), nil)
	}
	logger := logging.WithContext(ctx, r.logger)
	seenGroups := make(map[string]struct{})

	logger.Info("organizing files",
		logging.String("destination", destRoot),
		logging.String("operation", op.String()),
		logging.Int("entries", len(entries)),
	)

	for idx, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, services.Wrap(services.ErrIO, "organize", "reconcile", "Cancelled before all entries were processed", err)
		}

		folderName, err := GroupFolderName(entry.Group)
		if err != nil {
			return report, err
		}
		groupDir := filepath.Join(destRoot, folderName)
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return report, services.WrapPath(services.ErrIO, "organize", "create group folder", groupDir, "Cannot create group folder", err)
		}
		if _, ok := seenGroups[folderName]; !ok {
			seenGroups[folderName] = struct{}{}
			report.Groups = append(report.Groups, folderName)
		}

		info, err := os.Stat(entry.SourcePath)
		if err != nil || !info.Mode().IsRegular() {
			reason := "source is not a regular file"
			if err != nil {
				reason = "source does not exist"
				if !errors.Is(err, fs.ErrNotExist) {
					reason = err.Error()
				}
			}
			logging.WarnWithContext(logger, "skipping manifest entry", "organize_source_missing",
				logging.String("source", entry.SourcePath),
				logging.Int("index", idx),
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "the file may have been moved since classification ran"),
				logging.String(logging.FieldImpact, "entry left unorganized; remaining entries continue"),
			)
			report.Skips = append(report.Skips, Skip{Source: entry.SourcePath, Reason: reason})
			continue
		}

		target := filepath.Join(groupDir, filepath.Base(entry.SourcePath))
		dest, collided, exhausted, err := nextFreePath(target, r.maxAttempts)
		if err != nil {
			return report, services.WrapPath(services.ErrIO, "organize", "probe destination", target, "Cannot inspect destination", err)
		}
		if exhausted {
			logging.WarnWithContext(logger, "no free filename within collision limit", "organize_collision_exhausted",
				logging.String("destination", target),
				logging.Int("attempts", r.maxAttempts),
				logging.String(logging.FieldErrorHint, "clean up the group folder or raise organize.collision_attempts"),
				logging.String(logging.FieldImpact, "the existing file at the colliding path is replaced"),
			)
		}

		placement := Placement{Source: entry.SourcePath, Destination: dest, GroupFolder: folderName, Collided: collided, Replaced: exhausted}
		if err := r.apply(op, &placement); err != nil {
			return report, err
		}
		logger.Debug("placed file",
			logging.String("source", placement.Source),
			logging.String("destination", placement.Destination),
			logging.Bool("collided", placement.Collided),
		)
		report.Placements = append(report.Placements, placement)
	}

	logger.Info("organization complete",
		logging.Int("placed", len(report.Placements)),
		logging.Int("skipped", len(report.Skips)),
		logging.Int("groups", len(report.Groups)),
	)
	return report, nil
}

// apply performs op for one placement. A replacing placement is written to a
// staging file next to the destination and renamed over it, so the existing
// file survives a failed transfer.
func (r *Reconciler) apply(op Operation, p *Placement) error {
	if !p.Replaced {
		return r.transfer(op, p, p.Destination)
	}

	staging, err := reserveStaging(filepath.Dir(p.Destination))
	if err != nil {
		return services.WrapPath(services.ErrIO, "organize", "replace file", p.Destination, "Cannot stage replacement file", err)
	}
	if err := r.transfer(op, p, staging); err != nil {
		_ = os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, p.Destination); err != nil {
		switch {
		case op == Copy:
			_ = os.Remove(staging)
		case os.Rename(staging, p.Source) != nil:
			// The moved bytes only exist at staging now; leave them there.
			return services.WrapPath(services.ErrIO, "organize", "replace file", staging, "Cannot replace colliding file; moved file left at staging path", err)
		}
		return services.WrapPath(services.ErrIO, "organize", "replace file", p.Destination, "Cannot replace colliding file", err)
	}
	return nil
}

// reserveStaging returns an unused path in dir. The file is removed again
// because the copy helpers refuse to overwrite.
func reserveStaging(dir string) (string, error) {
	f, err := os.CreateTemp(dir, ".foldersort-*.partial")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

func (r *Reconciler) transfer(op Operation, p *Placement, dest string) error {
	switch op {
	case Copy:
		if r.verify {
			digest, err := fileutil.CopyFileVerified(p.Source, dest)
			if err != nil {
				return services.WrapPath(services.ErrIO, "organize", "copy file", p.Source, "Failed to copy file into group folder", err)
			}
			p.Digest = digest
			return nil
		}
		if err := fileutil.CopyFile(p.Source, dest); err != nil {
			return services.WrapPath(services.ErrIO, "organize", "copy file", p.Source, "Failed to copy file into group folder", err)
		}
		return nil
	default:
		crossDevice, err := fileutil.MoveFile(p.Source, dest, r.verify)
		p.CrossDevice = crossDevice
		if err != nil {
			return services.WrapPath(services.ErrIO, "organize", "move file", p.Source, "Failed to move file into group folder", err)
		}
		return nil
	}
}
