package runtime

import (
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

// Bootstrap initializes the creditscore ledger and allow-lists the loan and
// transaction history component principals as score updaters, all in one
// transaction. Running it against an already bootstrapped store is a no-op.
func (r *Runtime) Bootstrap() error {
	txn, err := r.store.Begin()
	if err != nil {
		return err
	}

	if err := r.credit.Initialize(txn, r.admin); err != nil {
		_ = txn.Rollback()
		if apperrors.CodeOf(err) == apperrors.CodeAlreadyInitialized {
			return nil
		}
		return err
	}
	if err := r.credit.AuthorizeUpdater(txn, r.admin, LoanPrincipal); err != nil {
		_ = txn.Rollback()
		return err
	}
	if err := r.credit.AuthorizeUpdater(txn, r.admin, TxHistoryPrincipal); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}
