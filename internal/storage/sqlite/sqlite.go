// Package sqlite provides the durable state.Store backend. All namespaces
// share one ledger_state table keyed by (namespace, key); transactions map
// directly onto SQLite transactions.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/calderafi/caldera/internal/ledger/state"
	"github.com/calderafi/caldera/internal/platform/storage/sqlitemigrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a state.Store over a SQLite database file.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the database at path and applies migrations. The
// ledger is a single-writer state machine, so the pool is capped at one
// connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Begin opens a transaction. It blocks until the previous transaction
// finishes.
func (s *Store) Begin() (state.Txn, error) {
	s.mu.Lock()
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("begin sqlite txn: %w", err)
	}
	return &txn{store: s, tx: tx}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type txn struct {
	store *Store
	tx    *sql.Tx
	done  bool
}

func (t *txn) Get(ns state.Namespace, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, state.ErrTxnDone
	}
	var value []byte
	row := t.tx.QueryRow("SELECT v FROM ledger_state WHERE ns = ? AND k = ?", string(ns), key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s/%s: %w", ns, key, err)
	}
	return value, true, nil
}

func (t *txn) Put(ns state.Namespace, key string, value []byte) error {
	if t.done {
		return state.ErrTxnDone
	}
	_, err := t.tx.Exec(
		"INSERT INTO ledger_state (ns, k, v) VALUES (?, ?, ?) ON CONFLICT (ns, k) DO UPDATE SET v = excluded.v",
		string(ns), key, value,
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", ns, key, err)
	}
	return nil
}

func (t *txn) Delete(ns state.Namespace, key string) error {
	if t.done {
		return state.ErrTxnDone
	}
	if _, err := t.tx.Exec("DELETE FROM ledger_state WHERE ns = ? AND k = ?", string(ns), key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", ns, key, err)
	}
	return nil
}

func (t *txn) Commit() error {
	if t.done {
		return state.ErrTxnDone
	}
	t.done = true
	defer t.store.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite txn: %w", err)
	}
	return nil
}

func (t *txn) Rollback() error {
	if t.done {
		return state.ErrTxnDone
	}
	t.done = true
	defer t.store.mu.Unlock()
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback sqlite txn: %w", err)
	}
	return nil
}
