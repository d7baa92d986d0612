// Package scriptstore persists emitted motion-script actions to a
// SQLite database: WAL pragmas, embedded migrations applied through
// golang-migrate's iofs source driver. The admin routes in
// internal/admin are pointed at the same handle.
package scriptstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a migrated SQLite handle holding emitted actions.
type Store struct {
	*sql.DB
}

// Action is one persisted [0, 100] position at a video timestamp.
type Action struct {
	ID          int64
	RunID       string
	Position    int
	TimestampMs int64
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("scriptstore: apply %q: %w", p, err)
		}
	}
	return nil
}

// Open creates or opens the SQLite database at path, applies the
// standard pragmas, and runs any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scriptstore: open %s: %w", path, err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db}
	if err := store.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrateUp() error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("scriptstore: sub filesystem: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("scriptstore: iofs source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("scriptstore: sqlite driver: %w", err)
	}

	// Note: we never call m.Close() here. Doing so with WithInstance
	// closes the underlying *sql.DB, which this Store still owns.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("scriptstore: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("scriptstore: migrate up: %w", err)
	}
	return nil
}

// RunSink returns an ActionSink that persists every action against the
// given run ID.
func (s *Store) RunSink(runID string) *RunSink {
	return &RunSink{store: s, runID: runID}
}

// RunSink binds AddAction calls to a single pipeline run.
type RunSink struct {
	store *Store
	runID string
}

// AddAction implements pipeline.ActionSink.
func (r *RunSink) AddAction(position int, timestampMs int64) error {
	_, err := r.store.Exec(
		`INSERT INTO actions (run_id, position, timestamp_ms) VALUES (?, ?, ?)`,
		r.runID, position, timestampMs,
	)
	if err != nil {
		return fmt.Errorf("scriptstore: insert action: %w", err)
	}
	return nil
}

// ListActions returns every action for runID in timestamp order.
func (s *Store) ListActions(runID string) ([]Action, error) {
	rows, err := s.Query(
		`SELECT id, run_id, position, timestamp_ms FROM actions WHERE run_id = ? ORDER BY timestamp_ms`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("scriptstore: query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.RunID, &a.Position, &a.TimestampMs); err != nil {
			return nil, fmt.Errorf("scriptstore: scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
