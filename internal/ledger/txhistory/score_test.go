package txhistory

import (
	"testing"

	"github.com/calderafi/caldera/internal/ledger/chain"
)

func TestCalculateTransactionScoreNoActivity(t *testing.T) {
	ledger, _, txn := newTestLedger(t)

	score, err := ledger.CalculateTransactionScore(txn, alice, 100)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 0 {
		t.Fatalf("expected 0 for no activity, got %d", score)
	}
}

func TestCalculateTransactionScoreComponents(t *testing.T) {
	ledger, _, txn := newTestLedger(t)

	// One fully successful transfer of 500_000_000 at height 10.
	if _, err := ledger.RecordTransaction(txn, admin, transfer(alice, bob, 500_000_000), 10); err != nil {
		t.Fatalf("record: %v", err)
	}

	// volume 5 + count 10 + age 0 + ratio 100.
	score, err := ledger.CalculateTransactionScore(txn, alice, 10)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 115 {
		t.Fatalf("expected 115, got %d", score)
	}

	// Ten age units later the age component adds 10.
	score, err = ledger.CalculateTransactionScore(txn, alice, chain.Height(10+10*blocksPerAgeUnit))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 125 {
		t.Fatalf("expected 125, got %d", score)
	}
}

func TestCalculateTransactionScoreCaps(t *testing.T) {
	ledger, _, txn := newTestLedger(t)

	// Volume far past the cap and more transactions than the count cap.
	for i := 0; i < 40; i++ {
		if _, err := ledger.RecordTransaction(txn, admin, transfer(alice, bob, 2_000_000_000), chain.Height(10+i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	// volume capped 400 + count capped 300 + age capped 200 + ratio 100.
	score, err := ledger.CalculateTransactionScore(txn, alice, chain.Height(10+300*blocksPerAgeUnit))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 1000 {
		t.Fatalf("expected capped score 1000, got %d", score)
	}
}

func TestCalculateTransactionScoreMixedOutcomes(t *testing.T) {
	ledger, _, txn := newTestLedger(t)

	ok := transfer(alice, bob, 100)
	failed := transfer(alice, bob, 100)
	failed.Success = false
	for _, rec := range []Record{ok, ok, ok, failed} {
		if _, err := ledger.RecordTransaction(txn, admin, rec, 10); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	// volume 0 + count 40 + age 0 + ratio 3*100/4 = 75.
	score, err := ledger.CalculateTransactionScore(txn, alice, 10)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 115 {
		t.Fatalf("expected 115, got %d", score)
	}
}
