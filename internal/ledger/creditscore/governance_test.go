package creditscore

import (
	"errors"
	"testing"
)

func TestProposeScoreUpdate(t *testing.T) {
	ledger, txn := newTestLedger(t)
	mustInitUser(t, ledger, txn, alice)

	id, err := ledger.ProposeScoreUpdate(txn, admin, alice, 750, 100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first action id 1, got %d", id)
	}

	action, ok, err := ledger.GetPendingAction(txn, id)
	if err != nil {
		t.Fatalf("get pending action: %v", err)
	}
	if !ok || action.Target != alice || action.Score != 750 || action.ProposedAt != 100 {
		t.Fatalf("unexpected action %+v ok=%v", action, ok)
	}

	if _, err := ledger.ProposeScoreUpdate(txn, admin, alice, 1001, 100); !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if _, err := ledger.ProposeScoreUpdate(txn, alice, alice, 750, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Ids are sequential.
	id, err = ledger.ProposeScoreUpdate(txn, admin, alice, 600, 101)
	if err != nil {
		t.Fatalf("propose second: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected second action id 2, got %d", id)
	}
}

func TestExecuteProposedActionTimelock(t *testing.T) {
	ledger, txn := newTestLedger(t)
	mustInitUser(t, ledger, txn, alice)

	id, err := ledger.ProposeScoreUpdate(txn, admin, alice, 750, 100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// One block short of the timelock.
	if _, err := ledger.ExecuteProposedAction(txn, admin, id, 100+TimelockBlocks-1); !errors.Is(err, ErrTimelockNotExpired) {
		t.Fatalf("expected timelock not expired, got %v", err)
	}

	score, err := ledger.ExecuteProposedAction(txn, admin, id, 100+TimelockBlocks)
	if err != nil {
		t.Fatalf("execute after timelock: %v", err)
	}
	if score != 750 {
		t.Fatalf("expected executed score 750, got %d", score)
	}
	got, err := ledger.GetCreditScore(txn, alice)
	if err != nil {
		t.Fatalf("get score: %v", err)
	}
	if got != 750 {
		t.Fatalf("expected stored score 750, got %d", got)
	}

	// Actions are consumed on execution.
	if _, err := ledger.ExecuteProposedAction(txn, admin, id, 100+TimelockBlocks); !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("expected action not found on replay, got %v", err)
	}
}

func TestExecuteUnknownActionFails(t *testing.T) {
	ledger, txn := newTestLedger(t)

	if _, err := ledger.ExecuteProposedAction(txn, admin, 999, 5000); !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("expected action not found, got %v", err)
	}
}

func TestCancelProposedAction(t *testing.T) {
	ledger, txn := newTestLedger(t)
	mustInitUser(t, ledger, txn, alice)

	id, err := ledger.ProposeScoreUpdate(txn, admin, alice, 750, 100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := ledger.CancelProposedAction(txn, alice, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized cancel, got %v", err)
	}
	if err := ledger.CancelProposedAction(txn, admin, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok, _ := ledger.GetPendingAction(txn, id); ok {
		t.Fatal("expected cancelled action to be gone")
	}
	if err := ledger.CancelProposedAction(txn, admin, 999); !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("expected action not found, got %v", err)
	}
}
