// Package loan manages collateralized loans against credit scores owned by
// the creditscore ledger. Loans move through a fixed lifecycle: pending is
// funded into active, active settles into repaid or expires into liquidated,
// and only pending loans can be cancelled.
package loan

import (
	"fmt"
	"strings"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

// Status describes the lifecycle position of a loan.
type Status string

const (
	// StatusPending indicates a requested loan awaiting a lender.
	StatusPending Status = "pending"
	// StatusActive indicates a funded loan accruing interest.
	StatusActive Status = "active"
	// StatusRepaid indicates a fully settled loan.
	StatusRepaid Status = "repaid"
	// StatusLiquidated indicates an expired loan closed by the lender.
	StatusLiquidated Status = "liquidated"
	// StatusCancelled indicates a pending loan withdrawn by the borrower.
	StatusCancelled Status = "cancelled"
)

// isStatusTransitionAllowed reports whether a lifecycle edge is permitted.
// These are the only reachable edges; admin overrides obey them too.
func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusActive || to == StatusCancelled
	case StatusActive:
		return to == StatusRepaid || to == StatusLiquidated
	default:
		return false
	}
}

// StatusFromLabel parses a string label into a Status. It trims whitespace
// and matches case-insensitively.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "pending":
		return StatusPending, nil
	case "active":
		return StatusActive, nil
	case "repaid":
		return StatusRepaid, nil
	case "liquidated":
		return StatusLiquidated, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown loan status: %s", value)
	}
}

var (
	// ErrInvalidTerms indicates a zero amount or duration.
	ErrInvalidTerms = apperrors.New(apperrors.CodeInvalidInput, "loan amount and duration must be positive")
	// ErrLimitExceeded indicates an amount above the borrower's tier maximum.
	ErrLimitExceeded = apperrors.New(apperrors.CodeLimitExceeded, "loan amount exceeds tier maximum")
	// ErrInsufficientCollateral indicates supplied collateral below the
	// score-derived requirement.
	ErrInsufficientCollateral = apperrors.New(apperrors.CodeInsufficientCollateral, "collateral below required amount")
	// ErrLoanNotFound indicates an unknown loan id.
	ErrLoanNotFound = apperrors.New(apperrors.CodeNotFound, "loan not found")
	// ErrUnauthorized indicates the caller may not act on the loan.
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not allowed to act on this loan")
	// ErrInvalidStatus indicates a disallowed lifecycle transition.
	ErrInvalidStatus = apperrors.New(apperrors.CodeInvalidState, "loan status does not allow this operation")
	// ErrNotYetExpired indicates a liquidation attempt before expiry.
	ErrNotYetExpired = apperrors.New(apperrors.CodeNotYetExpired, "loan has not expired yet")
	// ErrAmountOverflow indicates a currency computation that would overflow.
	ErrAmountOverflow = apperrors.New(apperrors.CodeInvalidInput, "amount arithmetic overflow")
)

// Loan is the persisted loan record. Lender and StartBlock are zero until
// the loan is funded.
type Loan struct {
	ID              uint64          `json:"id"`
	Borrower        chain.Principal `json:"borrower"`
	Lender          chain.Principal `json:"lender,omitempty"`
	Amount          uint64          `json:"amount"`
	InterestRateBps uint32          `json:"interest_rate_bps"`
	Collateral      uint64          `json:"collateral"`
	DurationBlocks  uint64          `json:"duration_blocks"`
	StartBlock      uint64          `json:"start_block,omitempty"`
	RepaidAmount    uint64          `json:"repaid_amount"`
	Status          Status          `json:"status"`
}

// meta is the singleton counter record for sequential loan ids.
type meta struct {
	LoanCount uint64 `json:"loan_count"`
}

// Manager is the loan component. Score reads and penalty writes go through
// the creditscore ledger under the manager's own component principal, which
// the bootstrap step allow-lists as an updater.
type Manager struct {
	admin  chain.Principal
	self   chain.Principal
	credit *creditscore.Ledger
}

// New returns a loan manager. admin gates privileged status overrides; self
// is the component principal used for nested creditscore calls.
func New(admin, self chain.Principal, credit *creditscore.Ledger) *Manager {
	return &Manager{admin: admin, self: self, credit: credit}
}

const metaKey = "meta"

func loanKey(id uint64) string {
	return fmt.Sprintf("loan/%d", id)
}

func borrowerKey(account chain.Principal) string {
	return "borrower/" + string(account)
}
