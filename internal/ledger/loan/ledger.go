package loan

import (
	"fmt"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	"github.com/calderafi/caldera/internal/ledger/state"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

// RequestLoan records a pending loan for the caller. The principal is
// bounded by the caller's credit tier and the collateral must cover the
// score-derived requirement. The interest rate is captured from the
// caller's tier at request time. Returns the new loan id.
func (m *Manager) RequestLoan(txn state.Txn, caller chain.Principal, amount, durationBlocks, collateral uint64) (uint64, error) {
	if err := m.requireCreditInitialized(txn); err != nil {
		return 0, err
	}
	if amount == 0 || durationBlocks == 0 {
		return 0, ErrInvalidTerms
	}
	score, err := m.credit.GetCreditScore(txn, caller)
	if err != nil {
		return 0, err
	}
	tier := creditscore.TierForScore(score)
	if amount > MaxAmountForTier(tier) {
		return 0, ErrLimitExceeded.WithMeta(map[string]string{
			"tier":       tier.Label(),
			"max_amount": fmt.Sprintf("%d", MaxAmountForTier(tier)),
		})
	}
	required, err := RequiredCollateral(amount, score)
	if err != nil {
		return 0, err
	}
	if collateral < required {
		return 0, ErrInsufficientCollateral.WithMeta(map[string]string{
			"required": fmt.Sprintf("%d", required),
			"supplied": fmt.Sprintf("%d", collateral),
		})
	}
	rate, err := m.credit.GetInterestRate(txn, caller)
	if err != nil {
		return 0, err
	}

	mt, err := m.loadMeta(txn)
	if err != nil {
		return 0, err
	}
	mt.LoanCount++
	id := mt.LoanCount
	record := Loan{
		ID:              id,
		Borrower:        caller,
		Amount:          amount,
		InterestRateBps: rate,
		Collateral:      collateral,
		DurationBlocks:  durationBlocks,
		Status:          StatusPending,
	}
	if err := state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record); err != nil {
		return 0, err
	}
	if err := m.appendBorrowerLoan(txn, caller, id); err != nil {
		return 0, err
	}
	if err := state.PutJSON(txn, state.NamespaceLoan, metaKey, mt); err != nil {
		return 0, err
	}
	return id, nil
}

// FundLoan activates a pending loan with the caller as lender. Borrowers
// cannot fund their own loans. Interest accrues from the funding height.
func (m *Manager) FundLoan(txn state.Txn, caller chain.Principal, id uint64, at chain.Height) error {
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return err
	}
	if caller == record.Borrower {
		return ErrUnauthorized
	}
	if record.Status != StatusPending {
		return ErrInvalidStatus
	}
	record.Lender = caller
	record.StartBlock = uint64(at)
	record.Status = StatusActive
	return state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record)
}

// RepayLoan applies a payment from the borrower toward an active loan. The
// loan settles once cumulative repayments cover principal plus interest
// accrued to the given height.
func (m *Manager) RepayLoan(txn state.Txn, caller chain.Principal, id, amount uint64, at chain.Height) error {
	if amount == 0 {
		return ErrInvalidTerms
	}
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return err
	}
	if caller != record.Borrower {
		return ErrUnauthorized
	}
	if record.Status != StatusActive {
		return ErrInvalidStatus
	}
	if amount > ^uint64(0)-record.RepaidAmount {
		return ErrAmountOverflow
	}
	record.RepaidAmount += amount
	interest, err := m.interestAt(record, at)
	if err != nil {
		return err
	}
	if interest > ^uint64(0)-record.Amount {
		return ErrAmountOverflow
	}
	if record.RepaidAmount >= record.Amount+interest {
		record.Status = StatusRepaid
	}
	return state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record)
}

// CancelLoan withdraws a pending loan. Only the borrower may cancel, and
// only before funding.
func (m *Manager) CancelLoan(txn state.Txn, caller chain.Principal, id uint64) error {
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return err
	}
	if caller != record.Borrower {
		return ErrUnauthorized
	}
	if record.Status != StatusPending {
		return ErrInvalidStatus
	}
	record.Status = StatusCancelled
	return state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record)
}

// LiquidateLoan closes an expired active loan in the lender's favor and
// applies a credit score penalty to the borrower. Expiry is strict: the
// current height must be past startBlock + durationBlocks.
func (m *Manager) LiquidateLoan(txn state.Txn, caller chain.Principal, id uint64, at chain.Height) error {
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return err
	}
	if caller != record.Lender {
		return ErrUnauthorized
	}
	if record.Status != StatusActive {
		return ErrInvalidStatus
	}
	if uint64(at) <= record.StartBlock+record.DurationBlocks {
		return ErrNotYetExpired
	}
	record.Status = StatusLiquidated
	if err := state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record); err != nil {
		return err
	}
	score, err := m.credit.GetCreditScore(txn, record.Borrower)
	if err != nil {
		return err
	}
	penalized := uint32(0)
	if score > LiquidationPenalty {
		penalized = score - LiquidationPenalty
	}
	_, err = m.credit.UpdateCreditScore(txn, m.self, record.Borrower, penalized, at)
	return err
}

// SetLoanStatus is an administrative override for a loan's status. It still
// honors the lifecycle graph, so it cannot resurrect a settled loan.
func (m *Manager) SetLoanStatus(txn state.Txn, caller chain.Principal, id uint64, status Status) error {
	if caller != m.admin {
		return ErrUnauthorized
	}
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return err
	}
	if !isStatusTransitionAllowed(record.Status, status) {
		return ErrInvalidStatus
	}
	record.Status = status
	return state.PutJSON(txn, state.NamespaceLoan, loanKey(id), record)
}

// CalculateInterest returns the interest accrued on a loan at the given
// height. Unfunded loans accrue nothing.
func (m *Manager) CalculateInterest(txn state.Txn, id uint64, at chain.Height) (uint64, error) {
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return 0, err
	}
	return m.interestAt(record, at)
}

// GetTotalDue returns the outstanding balance on a loan at the given
// height: principal plus accrued interest minus repayments, floored at 0.
func (m *Manager) GetTotalDue(txn state.Txn, id uint64, at chain.Height) (uint64, error) {
	record, err := m.requireLoan(txn, id)
	if err != nil {
		return 0, err
	}
	interest, err := m.interestAt(record, at)
	if err != nil {
		return 0, err
	}
	if interest > ^uint64(0)-record.Amount {
		return 0, ErrAmountOverflow
	}
	total := record.Amount + interest
	if record.RepaidAmount >= total {
		return 0, nil
	}
	return total - record.RepaidAmount, nil
}

// GetLoan returns a loan by id.
func (m *Manager) GetLoan(txn state.Txn, id uint64) (Loan, error) {
	return m.requireLoan(txn, id)
}

// GetUserLoans returns the ids of every loan the account has requested, in
// creation order.
func (m *Manager) GetUserLoans(txn state.Txn, account chain.Principal) ([]uint64, error) {
	var ids []uint64
	ok, err := state.GetJSON(txn, state.NamespaceLoan, borrowerKey(account), &ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ids, nil
}

// GetLoanCount returns the number of loans ever requested.
func (m *Manager) GetLoanCount(txn state.Txn) (uint64, error) {
	mt, err := m.loadMeta(txn)
	if err != nil {
		return 0, err
	}
	return mt.LoanCount, nil
}

// GetMaxLoanAmount returns the largest principal the account may request
// given its current credit tier.
func (m *Manager) GetMaxLoanAmount(txn state.Txn, account chain.Principal) (uint64, error) {
	score, err := m.credit.GetCreditScore(txn, account)
	if err != nil {
		return 0, err
	}
	return MaxAmountForTier(creditscore.TierForScore(score)), nil
}

// IsCreditScoreInitialized reports whether the backing creditscore ledger
// has been initialized.
func (m *Manager) IsCreditScoreInitialized(txn state.Txn) (bool, error) {
	return m.credit.IsInitialized(txn)
}

func (m *Manager) interestAt(record Loan, at chain.Height) (uint64, error) {
	if record.StartBlock == 0 || uint64(at) <= record.StartBlock {
		return 0, nil
	}
	elapsed := uint64(at) - record.StartBlock
	return accruedInterest(record.Amount, record.InterestRateBps, elapsed)
}

func (m *Manager) requireLoan(txn state.Txn, id uint64) (Loan, error) {
	var record Loan
	ok, err := state.GetJSON(txn, state.NamespaceLoan, loanKey(id), &record)
	if err != nil {
		return Loan{}, err
	}
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	return record, nil
}

func (m *Manager) requireCreditInitialized(txn state.Txn) error {
	ok, err := m.credit.IsInitialized(txn)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.CodeNotInitialized, "credit score ledger is not initialized")
	}
	return nil
}

func (m *Manager) appendBorrowerLoan(txn state.Txn, account chain.Principal, id uint64) error {
	var ids []uint64
	if _, err := state.GetJSON(txn, state.NamespaceLoan, borrowerKey(account), &ids); err != nil {
		return err
	}
	ids = append(ids, id)
	return state.PutJSON(txn, state.NamespaceLoan, borrowerKey(account), ids)
}

func (m *Manager) loadMeta(txn state.Txn) (meta, error) {
	var mt meta
	if _, err := state.GetJSON(txn, state.NamespaceLoan, metaKey, &mt); err != nil {
		return meta{}, err
	}
	return mt, nil
}
