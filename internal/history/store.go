package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"
)

// FileName is the history database filename inside the app data directory.
const FileName = "history.db"

// Kind distinguishes run types.
type Kind string

const (
	KindClassify Kind = "classify"
	KindOrganize Kind = "organize"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded classification or organize run.
type Run struct {
	ID             string
	Kind           Kind
	Status         Status
	Folder         string
	Destination    string
	Operation      string
	ManifestPath   string
	ManifestDigest string
	ErrorMessage   string
	Placed         int
	Skipped        int
	StartedAt      time.Time
	FinishedAt     time.Time
	// PID is the foldersort process that began the run. BeginRun fills it
	// with the current process when zero.
	PID int
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Placement is one manifest entry's fate within an organize run.
type Placement struct {
	Source        string
	Destination   string
	GroupFolder   string
	Collided      bool
	Replaced      bool
	SkippedReason string
	Digest        string
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Concurrent CLI invocations share the file; one connection per process
	// keeps pragmas applied.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a running row. An empty ID is replaced by a new UUID,
// which is returned.
func (s *Store) BeginRun(ctx context.Context, run Run) (string, error) {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.PID == 0 {
		run.PID = os.Getpid()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, kind, status, folder, destination, operation,
            manifest_path, manifest_digest, started_at, pid
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Kind),
		string(StatusRunning),
		nullableString(run.Folder),
		nullableString(run.Destination),
		nullableString(run.Operation),
		nullableString(run.ManifestPath),
		nullableString(run.ManifestDigest),
		formatTime(run.StartedAt),
		run.PID,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

// FinishRun marks a run finished. A nil runErr records success.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error, placed, skipped int) error {
	status := StatusSucceeded
	var message any
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, placed = ?, skipped = ?, finished_at = ?
         WHERE id = ?`,
		string(status), message, placed, skipped, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: %w", sql.ErrNoRows)
	}
	return nil
}

// SetManifestDigest records the digest of the manifest a run produced or read.
func (s *Store) SetManifestDigest(ctx context.Context, id, digest string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE runs SET manifest_digest = ? WHERE id = ?", nullableString(digest), id); err != nil {
		return fmt.Errorf("update manifest digest: %w", err)
	}
	return nil
}

// RecordPlacements stores placements for run id in order.
func (s *Store) RecordPlacements(ctx context.Context, id string, placements []Placement) error {
	if len(placements) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin placements tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO placements (
            run_id, position, source_path, destination_path, group_folder,
            collided, replaced, skipped_reason, digest
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare placement insert: %w", err)
	}
	defer stmt.Close()

	for idx, p := range placements {
		if _, err := stmt.ExecContext(ctx,
			id, idx, p.Source,
			nullableString(p.Destination),
			nullableString(p.GroupFolder),
			boolToInt(p.Collided),
			boolToInt(p.Replaced),
			nullableString(p.SkippedReason),
			nullableString(p.Digest),
		); err != nil {
			return fmt.Errorf("insert placement %d: %w", idx, err)
		}
	}
	return tx.Commit()
}

// GetRun fetches a run by ID. It returns (nil, nil) when no run matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRunColumns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ErrAmbiguousRunID reports that a run ID prefix matched more than one run.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// FindRun fetches a run by full ID or unique ID prefix. It returns (nil, nil)
// when nothing matches.
func (s *Store) FindRun(ctx context.Context, prefix string) (*Run, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if run, err := s.GetRun(ctx, prefix); err != nil || run != nil {
		return run, err
	}
	pattern := strings.NewReplacer("%", "", "_", "").Replace(prefix) + "%"
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM runs WHERE id LIKE ? LIMIT 2", pattern)
	if err != nil {
		return nil, fmt.Errorf("query run prefix: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return s.GetRun(ctx, ids[0])
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRunID, prefix)
	}
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRunColumns+" ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Placements returns the placements recorded for run id in manifest order.
func (s *Store) Placements(ctx context.Context, id string) ([]Placement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, destination_path, group_folder, collided, replaced, skipped_reason, digest
         FROM placements WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()

	var out []Placement
	for rows.Next() {
		var (
			p                           Placement
			dest, group, reason, digest sql.NullString
			collided, replaced          int
		)
		if err := rows.Scan(&p.Source, &dest, &group, &collided, &replaced, &reason, &digest); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		p.Destination = dest.String
		p.GroupFolder = group.String
		p.Collided = collided != 0
		p.Replaced = replaced != 0
		p.SkippedReason = reason.String
		p.Digest = digest.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkAbandoned fails running rows whose owning process has exited, for
// example after a crash or a killed terminal. Runs owned by a live process,
// including this one, are left alone. It returns the number of rows changed.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, pid FROM runs WHERE status = ?", string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("query running runs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var (
			id  string
			pid int
		)
		if err := rows.Scan(&id, &pid); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan running run: %w", err)
		}
		if !processAlive(pid) {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var changed int64
	finished := formatTime(time.Now())
	for _, id := range stale {
		res, err := s.db.ExecContext(ctx,
			"UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ? AND status = ?",
			string(StatusFailed), "abandoned", finished, id, string(StatusRunning))
		if err != nil {
			return changed, fmt.Errorf("mark run %s abandoned: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			changed += n
		}
	}
	return changed, nil
}

// processAlive reports whether pid names a running process on this host. A
// zero pid predates pid tracking and counts as gone.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

const selectRunColumns = `SELECT id, kind, status, folder, destination, operation,
    manifest_path, manifest_digest, error_message, placed, skipped, started_at, finished_at, pid
    FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                                                Run
		kind, status                                       string
		folder, dest, op, manifestPath, digest, errMessage sql.NullString
		startedAt                                          string
		finishedAt                                         sql.NullString
	)
	if err := row.Scan(&run.ID, &kind, &status, &folder, &dest, &op,
		&manifestPath, &digest, &errMessage, &run.Placed, &run.Skipped, &startedAt, &finishedAt, &run.PID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	run.Folder = folder.String
	run.Destination = dest.String
	run.Operation = op.String
	run.ManifestPath = manifestPath.String
	run.ManifestDigest = digest.String
	run.ErrorMessage = errMessage.String
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
