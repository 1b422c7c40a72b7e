// Package store implements the Persistent Store (C1): SQLite-backed
// tables for projects, files, connections, connection mappings, and the
// checkpoint queue, with transactional writes following the same
// sql.Open/PRAGMA/mutex conventions used throughout this codebase's
// storage layer.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"codenerd/internal/logging"
)

// Store is the persistent store handle owned by the Run Coordinator.
// All multi-row writes happen inside a run-scoped transaction opened by
// the coordinator at Committing (§4.1, §4.8); read methods run directly
// against the database so concurrent readers may observe pre-run state
// until commit.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open opens (creating if necessary) the SQLite database at path and
// initializes its schema.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to enable foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting store methods
// be called either directly (reads) or against the Coordinator's
// run-scoped transaction (writes), per §4.1.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Prepare(query string) (*sql.Stmt, error)
}

// Tx wraps a run-scoped transaction. The Run Coordinator opens one at
// entry to Committing, applies every accumulated write through it, and
// commits or rolls back as a single unit (§4.8).
type Tx struct {
	tx *sql.Tx
}

// Begin opens a new run-scoped transaction.
func (s *Store) Begin() (*Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction. Safe to call after a successful
// Commit (sql.Tx.Rollback then returns sql.ErrTxDone, which is ignored).
func (t *Tx) Rollback() {
	_ = t.tx.Rollback()
}
