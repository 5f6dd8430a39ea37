package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var resolutionsTable string

// upgrades[i] moves a database from user_version i to i+1. Append only; the
// length is the version this build writes.
var upgrades = []string{
	resolutionsTable,
}

// ErrSchemaMismatch reports a database written by a newer build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema brings the database up to len(upgrades), tracking progress in
// PRAGMA user_version. Older history is upgraded in place, never discarded.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	target := len(upgrades)
	switch {
	case version == target:
		return nil
	case version > target:
		return fmt.Errorf("%w: %s has version %d, this build reads up to %d (upgrade streamscout or delete the file)",
			ErrSchemaMismatch, s.path, version, target)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for v := version; v < target; v++ {
		if _, err := tx.ExecContext(ctx, upgrades[v]); err != nil {
			return fmt.Errorf("upgrade history schema to version %d: %w", v+1, err)
		}
	}
	// PRAGMA takes no bind parameters; target is a compile-time length.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
