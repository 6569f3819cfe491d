package creditscore

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// Factor names of the default catalog.
const (
	FactorPaymentHistory    = "payment_history"
	FactorTransactionVolume = "transaction_volume"
	FactorAccountAge        = "account_age"
	FactorCreditMix         = "credit_mix"
	FactorRecentInquiries   = "recent_inquiries"
)

// ScoreInputs are the per-factor inputs to the calculated score, each on a
// 0..1000 scale. Values above 1000 are capped before weighting.
type ScoreInputs struct {
	PaymentHistory    uint32 `json:"payment_history"`
	TransactionVolume uint32 `json:"transaction_volume"`
	AccountAge        uint32 `json:"account_age"`
	CreditMix         uint32 `json:"credit_mix"`
	RecentInquiries   uint32 `json:"recent_inquiries"`
}

// seedDefaultFactors installs the initial catalog at Initialize time.
func seedDefaultFactors(txn state.Txn) error {
	defaults := []Factor{
		{Name: FactorPaymentHistory, Weight: 35},
		{Name: FactorTransactionVolume, Weight: 30},
		{Name: FactorAccountAge, Weight: 15},
		{Name: FactorCreditMix, Weight: 10},
		{Name: FactorRecentInquiries, Weight: 10},
	}
	for _, factor := range defaults {
		if err := state.PutJSON(txn, state.NamespaceCredit, factorKey(factor.Name), factor); err != nil {
			return err
		}
	}
	return nil
}

// UpdateScoreFactor upserts a factor weight. Admin only; weights above 100
// are rejected.
func (l *Ledger) UpdateScoreFactor(txn state.Txn, caller chain.Principal, name string, weight uint32) error {
	if err := l.requireAdmin(txn, caller); err != nil {
		return err
	}
	if weight > 100 {
		return ErrWeightOutOfRange
	}
	return state.PutJSON(txn, state.NamespaceCredit, factorKey(name), Factor{Name: name, Weight: weight})
}

// GetScoreFactor returns a factor, reporting false when it does not exist.
func (l *Ledger) GetScoreFactor(txn state.Txn, name string) (Factor, bool, error) {
	var factor Factor
	ok, err := state.GetJSON(txn, state.NamespaceCredit, factorKey(name), &factor)
	if err != nil || !ok {
		return Factor{}, false, err
	}
	return factor, true, nil
}

// calculateScore computes the weighted factor sum, capped at MaxScore.
func (l *Ledger) calculateScore(txn state.Txn, inputs ScoreInputs) (uint32, error) {
	weighted := []struct {
		name  string
		value uint32
	}{
		{FactorPaymentHistory, inputs.PaymentHistory},
		{FactorTransactionVolume, inputs.TransactionVolume},
		{FactorAccountAge, inputs.AccountAge},
		{FactorCreditMix, inputs.CreditMix},
		{FactorRecentInquiries, inputs.RecentInquiries},
	}

	var total uint64
	for _, input := range weighted {
		value := input.value
		if value > MaxScore {
			value = MaxScore
		}
		factor, ok, err := l.GetScoreFactor(txn, input.name)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		total += uint64(value) * uint64(factor.Weight)
	}

	score := total / 100
	if score > MaxScore {
		score = MaxScore
	}
	return uint32(score), nil
}
