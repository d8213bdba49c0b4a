// Package store persists project state in a local sqlite database: page
// component trees, shared classes with reference counts, variables, and the
// per-page design seed. The orchestrator mutates documents only through the
// methods here, re-reading the freshest snapshot before every write.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pagecraft/internal/logging"
)

// Store wraps the project database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the project database at dir/pagecraft.db.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "pagecraft.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("opened project store at %s", path)
	return s, nil
}

// initialize creates the schema if missing.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		project_id TEXT NOT NULL,
		page_id    TEXT NOT NULL,
		components TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, page_id)
	);

	CREATE TABLE IF NOT EXISTS classes (
		project_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		styles     TEXT NOT NULL DEFAULT '{}',
		is_auto    INTEGER NOT NULL DEFAULT 0,
		ref_count  INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, name)
	);

	CREATE TABLE IF NOT EXISTS variables (
		project_id    TEXT NOT NULL,
		scope         TEXT NOT NULL,
		name          TEXT NOT NULL,
		data_type     TEXT NOT NULL,
		initial_value TEXT,
		runtime_value TEXT,
		PRIMARY KEY (project_id, scope, name)
	);

	CREATE TABLE IF NOT EXISTS design_seeds (
		project_id TEXT NOT NULL,
		page_id    TEXT NOT NULL,
		seed       TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, page_id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
