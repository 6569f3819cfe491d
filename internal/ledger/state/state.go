// Package state defines the namespaced key-value store abstraction the ledger
// core runs on. Every externally invoked operation executes inside exactly one
// transaction: it either commits all of its writes or none of them. The
// engine behind the interface is supplied by the host runtime; this package
// ships an in-memory implementation and internal/storage/sqlite a durable one.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Namespace isolates one component's key space. Components never touch each
// other's namespaces directly; cross-component access goes through the call
// interface.
type Namespace string

const (
	// NamespaceCredit holds credit profiles, factors and governance actions.
	NamespaceCredit Namespace = "credit"
	// NamespaceLoan holds loans and per-borrower indexes.
	NamespaceLoan Namespace = "loan"
	// NamespaceTxHistory holds transactions and user/protocol stats.
	NamespaceTxHistory Namespace = "txhistory"
	// NamespaceAgent holds agents, authorizations and capability counters.
	NamespaceAgent Namespace = "agent"
	// NamespaceJournal holds committed transition records for the reflector.
	NamespaceJournal Namespace = "journal"
)

// ErrTxnDone indicates a transaction was used after Commit or Rollback.
var ErrTxnDone = errors.New("state: transaction has already finished")

// Store opens transactions against the underlying engine. Begin blocks until
// the previous transaction finishes: the ledger is a single-writer state
// machine and partial visibility of in-progress writes is never allowed.
type Store interface {
	Begin() (Txn, error)
	Close() error
}

// Txn is a namespaced byte KV with all-or-nothing semantics.
type Txn interface {
	Get(ns Namespace, key string) ([]byte, bool, error)
	Put(ns Namespace, key string, value []byte) error
	Delete(ns Namespace, key string) error
	Commit() error
	Rollback() error
}

// GetJSON reads a key and unmarshals it into target. It reports false without
// error when the key is absent, so callers can treat missing records as
// neutral defaults where the contract allows it.
func GetJSON(txn Txn, ns Namespace, key string, target any) (bool, error) {
	raw, ok, err := txn.Get(ns, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", ns, key, err)
	}
	return true, nil
}

// PutJSON marshals value and writes it under the key.
func PutJSON(txn Txn, ns Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", ns, key, err)
	}
	return txn.Put(ns, key, raw)
}
