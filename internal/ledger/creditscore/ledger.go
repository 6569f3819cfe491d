package creditscore

import (
	"fmt"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// Initialize performs the one-time ledger setup: it records the admin
// principal and seeds the default score-factor catalog.
func (l *Ledger) Initialize(txn state.Txn, caller chain.Principal) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	var m meta
	ok, err := state.GetJSON(txn, state.NamespaceCredit, metaKey, &m)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	if err := state.PutJSON(txn, state.NamespaceCredit, metaKey, meta{Admin: caller, NextActionID: 1}); err != nil {
		return err
	}
	return seedDefaultFactors(txn)
}

// IsInitialized reports whether Initialize has run.
func (l *Ledger) IsInitialized(txn state.Txn) (bool, error) {
	var m meta
	return state.GetJSON(txn, state.NamespaceCredit, metaKey, &m)
}

// InitializeUserScore creates the caller's credit profile with the initial
// score. Each account gets exactly one profile.
func (l *Ledger) InitializeUserScore(txn state.Txn, caller chain.Principal) (uint32, error) {
	if _, err := l.requireInitialized(txn); err != nil {
		return 0, err
	}
	var existing Profile
	ok, err := state.GetJSON(txn, state.NamespaceCredit, profileKey(caller), &existing)
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, ErrProfileExists
	}
	profile := Profile{
		Score:   InitialScore,
		History: []uint32{InitialScore},
	}
	if err := state.PutJSON(txn, state.NamespaceCredit, profileKey(caller), profile); err != nil {
		return 0, err
	}
	return InitialScore, nil
}

// AuthorizeUpdater adds a principal to the score-writer allow-list.
func (l *Ledger) AuthorizeUpdater(txn state.Txn, caller, updater chain.Principal) error {
	if err := l.requireAdmin(txn, caller); err != nil {
		return err
	}
	return txn.Put(state.NamespaceCredit, updaterKey(updater), []byte("1"))
}

// RevokeUpdater removes a principal from the score-writer allow-list.
func (l *Ledger) RevokeUpdater(txn state.Txn, caller, updater chain.Principal) error {
	if err := l.requireAdmin(txn, caller); err != nil {
		return err
	}
	return txn.Delete(state.NamespaceCredit, updaterKey(updater))
}

// IsAuthorizedUpdater reports allow-list membership.
func (l *Ledger) IsAuthorizedUpdater(txn state.Txn, account chain.Principal) (bool, error) {
	_, ok, err := txn.Get(state.NamespaceCredit, updaterKey(account))
	return ok, err
}

// UpdateCreditScore writes a new score for the account. The caller must be an
// authorized updater; the score must be within range; the previous scores are
// kept in the history, archiving full pages.
func (l *Ledger) UpdateCreditScore(txn state.Txn, caller, account chain.Principal, newScore uint32, at chain.Height) (uint32, error) {
	if _, err := l.requireInitialized(txn); err != nil {
		return 0, err
	}
	authorized, err := l.IsAuthorizedUpdater(txn, caller)
	if err != nil {
		return 0, err
	}
	if !authorized {
		return 0, ErrUnauthorized
	}
	return l.writeScore(txn, account, newScore, at)
}

// CalculateAndUpdateScore derives a score from the weighted factor inputs and
// writes it through the same path as UpdateCreditScore.
func (l *Ledger) CalculateAndUpdateScore(txn state.Txn, caller, account chain.Principal, inputs ScoreInputs, at chain.Height) (uint32, error) {
	if _, err := l.requireInitialized(txn); err != nil {
		return 0, err
	}
	authorized, err := l.IsAuthorizedUpdater(txn, caller)
	if err != nil {
		return 0, err
	}
	if !authorized {
		return 0, ErrUnauthorized
	}
	score, err := l.calculateScore(txn, inputs)
	if err != nil {
		return 0, err
	}
	return l.writeScore(txn, account, score, at)
}

// writeScore is the single mutation path for scores. It validates the range,
// appends to the history, and archives the page when it would exceed the
// page size.
func (l *Ledger) writeScore(txn state.Txn, account chain.Principal, newScore uint32, at chain.Height) (uint32, error) {
	if newScore > MaxScore {
		return 0, ErrScoreOutOfRange
	}
	var profile Profile
	ok, err := state.GetJSON(txn, state.NamespaceCredit, profileKey(account), &profile)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrProfileNotFound
	}

	if len(profile.History) >= HistoryPageSize {
		if err := state.PutJSON(txn, state.NamespaceCredit, archiveKey(account, profile.ArchiveCount), profile.History); err != nil {
			return 0, err
		}
		profile.ArchiveCount++
		profile.History = nil
	}
	profile.History = append(profile.History, newScore)
	profile.Score = newScore
	profile.UpdatedAt = uint64(at)

	if err := state.PutJSON(txn, state.NamespaceCredit, profileKey(account), profile); err != nil {
		return 0, err
	}
	return newScore, nil
}

// GetCreditScore returns the account's current score.
func (l *Ledger) GetCreditScore(txn state.Txn, account chain.Principal) (uint32, error) {
	profile, err := l.requireProfile(txn, account)
	if err != nil {
		return 0, err
	}
	return profile.Score, nil
}

// GetCreditTier returns the account's tier.
func (l *Ledger) GetCreditTier(txn state.Txn, account chain.Principal) (Tier, error) {
	score, err := l.GetCreditScore(txn, account)
	if err != nil {
		return 0, err
	}
	return TierForScore(score), nil
}

// GetInterestRate returns the account's lending rate in basis points.
func (l *Ledger) GetInterestRate(txn state.Txn, account chain.Principal) (uint32, error) {
	tier, err := l.GetCreditTier(txn, account)
	if err != nil {
		return 0, err
	}
	return tier.InterestRateBps(), nil
}

// GetScoreHistory returns the current history page.
func (l *Ledger) GetScoreHistory(txn state.Txn, account chain.Principal) ([]uint32, error) {
	profile, err := l.requireProfile(txn, account)
	if err != nil {
		return nil, err
	}
	return profile.History, nil
}

// GetFullHistory returns the current page together with the archive count.
func (l *Ledger) GetFullHistory(txn state.Txn, account chain.Principal) (FullHistory, error) {
	profile, err := l.requireProfile(txn, account)
	if err != nil {
		return FullHistory{}, err
	}
	return FullHistory{Current: profile.History, ArchiveCount: profile.ArchiveCount}, nil
}

// GetArchivedHistory returns one archived page, reporting false when the page
// does not exist.
func (l *Ledger) GetArchivedHistory(txn state.Txn, account chain.Principal, index uint32) ([]uint32, bool, error) {
	var page []uint32
	ok, err := state.GetJSON(txn, state.NamespaceCredit, archiveKey(account, index), &page)
	if err != nil || !ok {
		return nil, false, err
	}
	return page, true, nil
}

// GetUserCreditData returns the full profile, reporting false for accounts
// without one.
func (l *Ledger) GetUserCreditData(txn state.Txn, account chain.Principal) (Profile, bool, error) {
	var profile Profile
	ok, err := state.GetJSON(txn, state.NamespaceCredit, profileKey(account), &profile)
	if err != nil || !ok {
		return Profile{}, false, err
	}
	return profile, true, nil
}

// HasProfile reports whether the account owns a credit profile.
func (l *Ledger) HasProfile(txn state.Txn, account chain.Principal) (bool, error) {
	ok, err := state.GetJSON(txn, state.NamespaceCredit, profileKey(account), &Profile{})
	return ok, err
}

func (l *Ledger) requireProfile(txn state.Txn, account chain.Principal) (Profile, error) {
	var profile Profile
	ok, err := state.GetJSON(txn, state.NamespaceCredit, profileKey(account), &profile)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (l *Ledger) requireInitialized(txn state.Txn) (meta, error) {
	var m meta
	ok, err := state.GetJSON(txn, state.NamespaceCredit, metaKey, &m)
	if err != nil {
		return meta{}, err
	}
	if !ok {
		return meta{}, ErrNotInitialized
	}
	return m, nil
}

func (l *Ledger) requireAdmin(txn state.Txn, caller chain.Principal) error {
	m, err := l.requireInitialized(txn)
	if err != nil {
		return err
	}
	if caller != m.Admin {
		return ErrUnauthorized
	}
	return nil
}

func (l *Ledger) saveMeta(txn state.Txn, m meta) error {
	if err := state.PutJSON(txn, state.NamespaceCredit, metaKey, m); err != nil {
		return fmt.Errorf("save credit ledger meta: %w", err)
	}
	return nil
}
