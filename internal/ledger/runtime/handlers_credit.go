package runtime

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	"github.com/calderafi/caldera/internal/ledger/state"
)

type accountArgs struct {
	Account chain.Principal `json:"account"`
}

type scoreArgs struct {
	Account chain.Principal `json:"account"`
	Score   uint32          `json:"score"`
}

type factorArgs struct {
	Name   string `json:"name"`
	Weight uint32 `json:"weight"`
}

type actionArgs struct {
	ID uint64 `json:"id"`
}

type archiveArgs struct {
	Account chain.Principal `json:"account"`
	Index   uint32          `json:"index"`
}

type calculateArgs struct {
	Account chain.Principal         `json:"account"`
	Inputs  creditscore.ScoreInputs `json:"inputs"`
}

type tierResult struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

func (r *Runtime) creditHandlers() map[string]handler {
	return map[string]handler{
		"initialize": func(txn state.Txn, call Call) (any, error) {
			return nil, r.credit.Initialize(txn, call.Caller)
		},
		"is-initialized": func(txn state.Txn, call Call) (any, error) {
			return r.credit.IsInitialized(txn)
		},
		"initialize-user-score": func(txn state.Txn, call Call) (any, error) {
			return r.credit.InitializeUserScore(txn, call.Caller)
		},
		"authorize-updater": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.credit.AuthorizeUpdater(txn, call.Caller, args.Account)
		},
		"revoke-updater": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.credit.RevokeUpdater(txn, call.Caller, args.Account)
		},
		"is-authorized-updater": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.IsAuthorizedUpdater(txn, args.Account)
		},
		"update-credit-score": func(txn state.Txn, call Call) (any, error) {
			var args scoreArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.UpdateCreditScore(txn, call.Caller, args.Account, args.Score, call.Height)
		},
		"calculate-and-update-score": func(txn state.Txn, call Call) (any, error) {
			var args calculateArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.CalculateAndUpdateScore(txn, call.Caller, args.Account, args.Inputs, call.Height)
		},
		"update-score-factor": func(txn state.Txn, call Call) (any, error) {
			var args factorArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.credit.UpdateScoreFactor(txn, call.Caller, args.Name, args.Weight)
		},
		"get-score-factor": func(txn state.Txn, call Call) (any, error) {
			var args factorArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			factor, _, err := r.credit.GetScoreFactor(txn, args.Name)
			return factor, err
		},
		"get-credit-score": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.GetCreditScore(txn, args.Account)
		},
		"get-credit-tier": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			tier, err := r.credit.GetCreditTier(txn, args.Account)
			if err != nil {
				return nil, err
			}
			return tierResult{Level: int(tier), Label: tier.Label()}, nil
		},
		"get-interest-rate": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.GetInterestRate(txn, args.Account)
		},
		"get-score-history": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.GetScoreHistory(txn, args.Account)
		},
		"get-full-history": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.GetFullHistory(txn, args.Account)
		},
		"get-archived-history": func(txn state.Txn, call Call) (any, error) {
			var args archiveArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			page, _, err := r.credit.GetArchivedHistory(txn, args.Account, args.Index)
			return page, err
		},
		"get-user-credit-data": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			profile, _, err := r.credit.GetUserCreditData(txn, args.Account)
			return profile, err
		},
		"has-profile": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.HasProfile(txn, args.Account)
		},
		"propose-score-update": func(txn state.Txn, call Call) (any, error) {
			var args scoreArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.ProposeScoreUpdate(txn, call.Caller, args.Account, args.Score, call.Height)
		},
		"execute-proposed-action": func(txn state.Txn, call Call) (any, error) {
			var args actionArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.credit.ExecuteProposedAction(txn, call.Caller, args.ID, call.Height)
		},
		"cancel-proposed-action": func(txn state.Txn, call Call) (any, error) {
			var args actionArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.credit.CancelProposedAction(txn, call.Caller, args.ID)
		},
		"get-pending-action": func(txn state.Txn, call Call) (any, error) {
			var args actionArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			action, _, err := r.credit.GetPendingAction(txn, args.ID)
			return action, err
		},
	}
}
