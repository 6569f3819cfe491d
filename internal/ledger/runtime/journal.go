package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
	"github.com/calderafi/caldera/internal/platform/id"
)

// Entry is one committed transition. The sequence is dense and gapless, so a
// replayer that applies entries in order reconstructs the exact state.
type Entry struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Component string          `json:"component"`
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args,omitempty"`
	Caller    chain.Principal `json:"caller"`
	Height    chain.Height    `json:"height"`
	RequestID string          `json:"request_id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

type journalMeta struct {
	Seq uint64 `json:"seq"`
}

const journalMetaKey = "meta"

func journalEntryKey(seq uint64) string {
	return fmt.Sprintf("entry/%020d", seq)
}

func appendJournal(txn state.Txn, call Call, result json.RawMessage) error {
	var mt journalMeta
	if _, err := state.GetJSON(txn, state.NamespaceJournal, journalMetaKey, &mt); err != nil {
		return err
	}
	mt.Seq++

	entryID, err := id.NewID()
	if err != nil {
		return err
	}
	entry := Entry{
		ID:        entryID,
		Seq:       mt.Seq,
		Component: call.Component,
		Operation: call.Operation,
		Args:      call.Args,
		Caller:    call.Caller,
		Height:    call.Height,
		RequestID: call.RequestID,
		Result:    result,
	}
	if err := state.PutJSON(txn, state.NamespaceJournal, journalEntryKey(mt.Seq), entry); err != nil {
		return err
	}
	return state.PutJSON(txn, state.NamespaceJournal, journalMetaKey, mt)
}

// JournalLen returns the number of committed transitions.
func (r *Runtime) JournalLen() (uint64, error) {
	txn, err := r.store.Begin()
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	var mt journalMeta
	if _, err := state.GetJSON(txn, state.NamespaceJournal, journalMetaKey, &mt); err != nil {
		return 0, err
	}
	return mt.Seq, nil
}

// JournalEntries returns entries with sequence in (after, after+limit].
func (r *Runtime) JournalEntries(after uint64, limit int) ([]Entry, error) {
	txn, err := r.store.Begin()
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	var mt journalMeta
	if _, err := state.GetJSON(txn, state.NamespaceJournal, journalMetaKey, &mt); err != nil {
		return nil, err
	}
	var entries []Entry
	for seq := after + 1; seq <= mt.Seq && len(entries) < limit; seq++ {
		var entry Entry
		ok, err := state.GetJSON(txn, state.NamespaceJournal, journalEntryKey(seq), &entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("journal gap at seq %d", seq)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
