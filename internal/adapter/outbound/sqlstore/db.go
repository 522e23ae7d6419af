// Package sqlstore is the database/sql-backed implementation of
// taxii1.Repository and taxii2.Repository, against the schema embedded from
// schema.sql (spec.md §6).
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store owns the connection pool shared by every repository implementation
// in this package.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and applies
// schema.sql. Use ":memory:" for an ephemeral, process-local database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlstore: path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	// sqlite allows exactly one writer; a single connection avoids
	// SQLITE_BUSY from the driver's own pool contending with itself.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		return fmt.Errorf("sqlstore: pragma: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the pool for the sub-repository constructors in this package.
func (s *Store) DB() *sql.DB {
	return s.db
}

const sqliteTimeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// withImmediate runs fn inside a transaction for check-then-act sequences
// (upserts, volume increments, job-detail counters). With MaxOpenConns(1)
// the pool itself is sqlite's single writer, so a plain BeginTx already
// gives BEGIN IMMEDIATE's effect: no second writer can interleave between
// the check and the act (spec.md §4.6/§5).
func (s *Store) withImmediate(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}
