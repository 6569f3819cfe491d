// Package creditscore owns per-account credit scores: profile lifecycle,
// score history with archiving, the score-factor catalog, and timelocked
// governance over direct score writes.
package creditscore

import (
	"fmt"

	"github.com/calderafi/caldera/internal/ledger/chain"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

const (
	// MaxScore is the upper bound of every credit score.
	MaxScore = 1000
	// InitialScore is assigned when a profile is created.
	InitialScore = 500
	// HistoryPageSize caps the current history page before archiving.
	HistoryPageSize = 100
	// TimelockBlocks is the mandatory delay between proposing and executing
	// a governance score update.
	TimelockBlocks chain.Height = 1440
)

var (
	// ErrNotInitialized indicates the ledger has not been initialized yet.
	ErrNotInitialized = apperrors.New(apperrors.CodeNotInitialized, "credit ledger is not initialized")
	// ErrAlreadyInitialized indicates a repeated initialize call.
	ErrAlreadyInitialized = apperrors.New(apperrors.CodeAlreadyInitialized, "credit ledger is already initialized")
	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not allowed to perform this operation")
	// ErrProfileExists indicates the account already has a credit profile.
	ErrProfileExists = apperrors.New(apperrors.CodeAlreadyInitialized, "credit profile already exists")
	// ErrProfileNotFound indicates the account has no credit profile.
	ErrProfileNotFound = apperrors.New(apperrors.CodeNotFound, "credit profile not found")
	// ErrScoreOutOfRange indicates a score outside [0, 1000].
	ErrScoreOutOfRange = apperrors.New(apperrors.CodeInvalidInput, "score must be between 0 and 1000")
	// ErrWeightOutOfRange indicates a factor weight above 100.
	ErrWeightOutOfRange = apperrors.New(apperrors.CodeInvalidInput, "factor weight must be at most 100")
	// ErrActionNotFound indicates an unknown pending governance action.
	ErrActionNotFound = apperrors.New(apperrors.CodePendingActionNotFound, "pending action not found")
	// ErrTimelockNotExpired indicates the governance delay has not elapsed.
	ErrTimelockNotExpired = apperrors.New(apperrors.CodeTimelockNotExpired, "timelock has not expired")
)

// Profile is the per-account credit record. History holds the current page;
// full pages move to archive entries keyed by their index.
type Profile struct {
	Score        uint32   `json:"score"`
	History      []uint32 `json:"history"`
	ArchiveCount uint32   `json:"archive_count"`
	UpdatedAt    uint64   `json:"updated_at"`
}

// Factor is a weighted component of the calculated score.
type Factor struct {
	Name   string `json:"name"`
	Weight uint32 `json:"weight"`
}

// PendingAction is a proposed, timelocked score update.
type PendingAction struct {
	ID         uint64          `json:"id"`
	Target     chain.Principal `json:"target"`
	Score      uint32          `json:"score"`
	ProposedAt uint64          `json:"proposed_at"`
}

// FullHistory is the combined read of the current page and archive count.
type FullHistory struct {
	Current      []uint32 `json:"current"`
	ArchiveCount uint32   `json:"archive_count"`
}

// meta is the singleton ledger record written by Initialize.
type meta struct {
	Admin        chain.Principal `json:"admin"`
	NextActionID uint64          `json:"next_action_id"`
}

// Ledger is the credit-score component. It is stateless; all state lives in
// the credit namespace of the transaction passed into each operation.
type Ledger struct {
	admin chain.Principal
}

// New returns a credit-score ledger whose privileged operations are reserved
// for the given admin principal.
func New(admin chain.Principal) *Ledger {
	return &Ledger{admin: admin}
}

const metaKey = "meta"

func profileKey(account chain.Principal) string {
	return "profile/" + string(account)
}

func archiveKey(account chain.Principal, index uint32) string {
	return fmt.Sprintf("archive/%s/%d", account, index)
}

func updaterKey(account chain.Principal) string {
	return "updater/" + string(account)
}

func factorKey(name string) string {
	return "factor/" + name
}

func actionKey(id uint64) string {
	return fmt.Sprintf("action/%d", id)
}
