/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists every installed tariff snapshot (generic.TariffStore) and the
  audit trail of remote pricing refreshes. Quotes and bookings are never
  stored: quotes are recomputed on demand and bookings are handed off.

INTERFACES IMPLEMENTED:
  generic.TariffStore: Tariff snapshot history

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the tariffs table
  - A version is inserted at most once (UNIQUE constraint)

KEY TABLES:
  tariffs:       One row per installed snapshot, newest has the highest seq
  tariff_values: One row per rate, values stored as TEXT decimals
  refresh_runs:  One row per remote pricing pull

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of a single connection, so
  ":memory:" databases are shared by every caller of the Store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/quotes.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  tariff, err := pricing.LoadLatest(ctx, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - api/scheduler.go: Writes refresh runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" would be a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tariff snapshots (append-only)
	CREATE TABLE IF NOT EXISTS tariffs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		version TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		installed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tariff_values (
		version TEXT NOT NULL REFERENCES tariffs(version),
		rate_key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (version, rate_key)
	);

	-- Remote pricing pulls
	CREATE TABLE IF NOT EXISTS refresh_runs (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		applied INTEGER DEFAULT 0,
		ignored INTEGER DEFAULT 0,
		version TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_refresh_runs_started
		ON refresh_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TARIFF STORE (generic.TariffStore interface)
// =============================================================================

// SaveTariff appends a snapshot and its values in one transaction.
func (s *Store) SaveTariff(ctx context.Context, rec generic.TariffRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tariffs (version, source, installed_at) VALUES (?, ?, ?)`,
		rec.Version, rec.Source, rec.InstalledAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateVersion
		}
		return fmt.Errorf("failed to insert tariff: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tariff_values (version, rate_key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range rec.Values {
		if _, err := stmt.ExecContext(ctx, rec.Version, k, v.String()); err != nil {
			return fmt.Errorf("failed to insert tariff value %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// LatestTariff returns the most recently saved snapshot.
func (s *Store) LatestTariff(ctx context.Context) (*generic.TariffRecord, error) {
	recs, err := s.ListTariffs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, generic.ErrTariffNotFound
	}
	return &recs[0], nil
}

// ListTariffs returns snapshots newest first.
func (s *Store) ListTariffs(ctx context.Context, limit int) ([]generic.TariffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT version, source, installed_at FROM tariffs ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var recs []generic.TariffRecord
	for rows.Next() {
		var rec generic.TariffRecord
		var installedAt string
		if err := rows.Scan(&rec.Version, &rec.Source, &installedAt); err != nil {
			rows.Close()
			return nil, err
		}
		rec.InstalledAt, _ = time.Parse(time.RFC3339Nano, installedAt)
		recs = append(recs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Values are loaded after the outer rows are closed: the store runs on a
	// single connection.
	for i := range recs {
		values, err := s.loadValues(ctx, recs[i].Version)
		if err != nil {
			return nil, err
		}
		recs[i].Values = values
	}
	return recs, nil
}

func (s *Store) loadValues(ctx context.Context, version string) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rate_key, value FROM tariff_values WHERE version = ?`, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]decimal.Decimal)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			// A corrupt value is dropped; the tariff falls back to its default.
			continue
		}
		values[key] = d
	}
	return values, rows.Err()
}

// =============================================================================
// REFRESH RUNS - Audit of remote pricing pulls
// =============================================================================

// RefreshRun records one remote pricing pull.
type RefreshRun struct {
	ID          string
	SourceURL   string
	Status      string // running, completed, unchanged, failed
	Applied     int
	Ignored     int
	Version     string
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveRefreshRun inserts or updates a run.
func (s *Store) SaveRefreshRun(ctx context.Context, r RefreshRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO refresh_runs (id, source_url, status, applied, ignored, version, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			applied = excluded.applied,
			ignored = excluded.ignored,
			version = excluded.version,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		ts := r.CompletedAt.UTC().Format(time.RFC3339Nano)
		completedAt = &ts
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.SourceURL, r.Status, r.Applied, r.Ignored,
		nullString(r.Version), nullString(r.Error),
		r.StartedAt.UTC().Format(time.RFC3339Nano), completedAt,
	)
	return err
}

// GetRefreshRuns returns runs newest first, optionally filtered by status.
func (s *Store) GetRefreshRuns(ctx context.Context, status string, limit int) ([]RefreshRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, source_url, status, applied, ignored, version, error, started_at, completed_at
		FROM refresh_runs
	`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var r RefreshRun
		var version, errText, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(
			&r.ID, &r.SourceURL, &r.Status, &r.Applied, &r.Ignored,
			&version, &errText, &startedAt, &completedAt,
		); err != nil {
			return nil, err
		}

		r.Version = version.String
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
			r.CompletedAt = &t
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
