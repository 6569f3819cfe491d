package creditscore

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// ProposeScoreUpdate records a timelocked score update for the target
// account and returns the sequential action id. Admin only.
func (l *Ledger) ProposeScoreUpdate(txn state.Txn, caller, target chain.Principal, score uint32, at chain.Height) (uint64, error) {
	m, err := l.requireInitialized(txn)
	if err != nil {
		return 0, err
	}
	if caller != m.Admin {
		return 0, ErrUnauthorized
	}
	if score > MaxScore {
		return 0, ErrScoreOutOfRange
	}
	if _, err := l.requireProfile(txn, target); err != nil {
		return 0, err
	}

	action := PendingAction{
		ID:         m.NextActionID,
		Target:     target,
		Score:      score,
		ProposedAt: uint64(at),
	}
	if err := state.PutJSON(txn, state.NamespaceCredit, actionKey(action.ID), action); err != nil {
		return 0, err
	}
	m.NextActionID++
	if err := l.saveMeta(txn, m); err != nil {
		return 0, err
	}
	return action.ID, nil
}

// ExecuteProposedAction applies a pending action once the timelock has
// expired. The write goes through the same path as UpdateCreditScore, and
// the action is consumed.
func (l *Ledger) ExecuteProposedAction(txn state.Txn, caller chain.Principal, id uint64, at chain.Height) (uint32, error) {
	if err := l.requireAdmin(txn, caller); err != nil {
		return 0, err
	}
	var action PendingAction
	ok, err := state.GetJSON(txn, state.NamespaceCredit, actionKey(id), &action)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrActionNotFound
	}
	if at < chain.Height(action.ProposedAt)+TimelockBlocks {
		return 0, ErrTimelockNotExpired
	}

	score, err := l.writeScore(txn, action.Target, action.Score, at)
	if err != nil {
		return 0, err
	}
	if err := txn.Delete(state.NamespaceCredit, actionKey(id)); err != nil {
		return 0, err
	}
	return score, nil
}

// CancelProposedAction discards a pending action. Admin only.
func (l *Ledger) CancelProposedAction(txn state.Txn, caller chain.Principal, id uint64) error {
	if err := l.requireAdmin(txn, caller); err != nil {
		return err
	}
	var action PendingAction
	ok, err := state.GetJSON(txn, state.NamespaceCredit, actionKey(id), &action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrActionNotFound
	}
	return txn.Delete(state.NamespaceCredit, actionKey(id))
}

// GetPendingAction returns a pending action, reporting false when none
// exists for the id.
func (l *Ledger) GetPendingAction(txn state.Txn, id uint64) (PendingAction, bool, error) {
	var action PendingAction
	ok, err := state.GetJSON(txn, state.NamespaceCredit, actionKey(id), &action)
	if err != nil || !ok {
		return PendingAction{}, false, err
	}
	return action, true, nil
}
