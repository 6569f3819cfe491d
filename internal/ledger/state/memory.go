package state

import "sync"

// MemoryStore is the in-memory Store used by tests and the replay tool. A
// transaction buffers writes in an overlay and folds them into the base maps
// only on Commit, so a failed operation leaves no trace.
type MemoryStore struct {
	mu   sync.Mutex
	data map[Namespace]map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[Namespace]map[string][]byte)}
}

// Begin opens a transaction. The store lock is held until the transaction
// commits or rolls back, which serializes operations exactly as the
// single-threaded execution model requires.
func (s *MemoryStore) Begin() (Txn, error) {
	s.mu.Lock()
	return &memoryTxn{store: s, writes: make(map[Namespace]map[string]write)}, nil
}

// Close releases the store. The in-memory engine has nothing to flush.
func (s *MemoryStore) Close() error {
	return nil
}

// write is an overlay entry; deleted marks a tombstone.
type write struct {
	value   []byte
	deleted bool
}

type memoryTxn struct {
	store  *MemoryStore
	writes map[Namespace]map[string]write
	done   bool
}

func (t *memoryTxn) Get(ns Namespace, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxnDone
	}
	if overlay, ok := t.writes[ns]; ok {
		if w, ok := overlay[key]; ok {
			if w.deleted {
				return nil, false, nil
			}
			return append([]byte(nil), w.value...), true, nil
		}
	}
	base, ok := t.store.data[ns]
	if !ok {
		return nil, false, nil
	}
	value, ok := base[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (t *memoryTxn) Put(ns Namespace, key string, value []byte) error {
	if t.done {
		return ErrTxnDone
	}
	t.overlay(ns)[key] = write{value: append([]byte(nil), value...)}
	return nil
}

func (t *memoryTxn) Delete(ns Namespace, key string) error {
	if t.done {
		return ErrTxnDone
	}
	t.overlay(ns)[key] = write{deleted: true}
	return nil
}

func (t *memoryTxn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	for ns, overlay := range t.writes {
		base, ok := t.store.data[ns]
		if !ok {
			base = make(map[string][]byte)
			t.store.data[ns] = base
		}
		for key, w := range overlay {
			if w.deleted {
				delete(base, key)
				continue
			}
			base[key] = w.value
		}
	}
	t.finish()
	return nil
}

func (t *memoryTxn) Rollback() error {
	if t.done {
		return ErrTxnDone
	}
	t.finish()
	return nil
}

func (t *memoryTxn) overlay(ns Namespace) map[string]write {
	overlay, ok := t.writes[ns]
	if !ok {
		overlay = make(map[string]write)
		t.writes[ns] = overlay
	}
	return overlay
}

func (t *memoryTxn) finish() {
	t.done = true
	t.writes = nil
	t.store.mu.Unlock()
}
