package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a database from user_version i to i+1. A fresh
// database reports 0.
var migrations = []string{
	schemaSQL,
	`ALTER TABLE runs ADD COLUMN pid INTEGER NOT NULL DEFAULT 0;
ALTER TABLE placements ADD COLUMN replaced INTEGER NOT NULL DEFAULT 0;`,
}

// schemaVersion is stored in PRAGMA user_version.
var schemaVersion = len(migrations)

// ErrSchemaMismatch is returned when history.db was written by a newer
// schema version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if current == schemaVersion {
		return nil
	}
	if current < 0 || current > schemaVersion {
		return fmt.Errorf("%w: %s is at version %d, this build expects %d; remove it to start a fresh history",
			ErrSchemaMismatch, s.path, current, schemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for version := current; version < schemaVersion; version++ {
		if _, err := tx.ExecContext(ctx, migrations[version]); err != nil {
			return fmt.Errorf("migrate to version %d: %w", version+1, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
