package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// Store is the SQLite-backed storage adapter (C1). Thread-safe for
// concurrent callers, the way the teacher's SQLiteStore guards every
// method with an RWMutex.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	dim int
}

// New creates an in-memory store.
func New() (*Store, error) {
	return NewWithDSN(":memory:", 1024)
}

// NewWithDSN creates a store at dsn (":memory:" or a file path) with
// vector columns sized to dim, the system-wide constant D (spec 4.2).
func NewWithDSN(dsn string, dim int) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.NewWithDSN", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errkind.New(errkind.PermanentStorage, "store.NewWithDSN", fmt.Errorf("create schema: %w", err))
	}

	s := &Store{db: db, dim: dim}
	for _, coll := range []string{"messages", "memories", "entities", "compactions"} {
		if err := s.EnsureVectorIndex(coll, dim); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dimension returns the system-wide embedding dimension D this store
// was configured with.
func (s *Store) Dimension() int { return s.dim }

// Transaction wraps fn in a database transaction, the adapter's
// `transaction(fn)` scope from spec 4.1, used by C9's multi-write
// ingestion path (message insert + memory insert + entity upserts).
func (s *Store) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyStorageErr("store.Transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyStorageErr("store.Transaction", err)
	}
	return nil
}

// Exec runs a raw statement and is the narrow escape hatch spec 4.1's
// execute_query primitive maps to for callers (the view manager, the
// search engine) that need DDL or queries this package has no typed
// method for — FTS5 virtual table management and ad-hoc BM25 queries.
func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, classifyStorageErr("store.Exec", err)
	}
	return res, nil
}

// Query runs a raw read query, the read-side counterpart to Exec.
func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, classifyStorageErr("store.Query", err)
	}
	return rows, nil
}

// QueryRow runs a raw single-row read query.
func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.QueryRow(query, args...)
}

// classifyStorageErr distinguishes transient from permanent storage
// failures per spec 7, the way the teacher distinguishes sql.ErrNoRows
// from other failures — here generalized to the adapter's full error
// surface. database/sql does not expose a portable transient/permanent
// distinction for SQLite, so busy/locked errors (the only ones SQLite
// itself calls out as retryable) are classified transient and
// everything else permanent.
func classifyStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, sub := range []string{"locked", "busy", "timeout"} {
		if strings.Contains(msg, sub) {
			return errkind.New(errkind.TransientStorage, op, err)
		}
	}
	return errkind.New(errkind.PermanentStorage, op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
