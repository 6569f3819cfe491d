package txhistory

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// Score component caps. Volume earns up to 400 points, count up to 300,
// account age up to 200, and the success ratio up to 100.
const (
	volumeScoreCap   = 400
	volumePerPoint   = 100_000_000
	countScoreCap    = 300
	pointsPerTx      = 10
	ageScoreCap      = 200
	blocksPerAgeUnit = 144
	ratioScoreCap    = 100
)

// CalculateTransactionScore derives a credit-style score from an account's
// transaction activity at the given height. Accounts with no activity score
// zero.
func (l *Ledger) CalculateTransactionScore(txn state.Txn, account chain.Principal, at chain.Height) (uint32, error) {
	stats, err := l.loadUserStats(txn, account)
	if err != nil {
		return 0, err
	}
	if stats.TransactionCount == 0 {
		return 0, nil
	}

	volume := (stats.TotalSent + stats.TotalReceived) / volumePerPoint
	if volume > volumeScoreCap {
		volume = volumeScoreCap
	}
	count := stats.TransactionCount * pointsPerTx
	if count > countScoreCap {
		count = countScoreCap
	}
	var age uint64
	if uint64(at) > stats.FirstTxBlock {
		age = (uint64(at) - stats.FirstTxBlock) / blocksPerAgeUnit
	}
	if age > ageScoreCap {
		age = ageScoreCap
	}
	ratio := stats.SuccessfulCount * ratioScoreCap / stats.TransactionCount

	score := volume + count + age + ratio
	if score > creditscore.MaxScore {
		score = creditscore.MaxScore
	}
	return uint32(score), nil
}
