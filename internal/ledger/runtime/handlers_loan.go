package runtime

import (
	"github.com/calderafi/caldera/internal/ledger/loan"
	"github.com/calderafi/caldera/internal/ledger/state"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

type requestLoanArgs struct {
	Amount         uint64 `json:"amount"`
	DurationBlocks uint64 `json:"duration_blocks"`
	Collateral     uint64 `json:"collateral"`
}

type loanIDArgs struct {
	ID uint64 `json:"id"`
}

type repayArgs struct {
	ID     uint64 `json:"id"`
	Amount uint64 `json:"amount"`
}

type loanStatusArgs struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

type collateralArgs struct {
	Amount uint64 `json:"amount"`
	Score  uint32 `json:"score"`
}

func (r *Runtime) loanHandlers() map[string]handler {
	return map[string]handler{
		"request-loan": func(txn state.Txn, call Call) (any, error) {
			var args requestLoanArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.RequestLoan(txn, call.Caller, args.Amount, args.DurationBlocks, args.Collateral)
		},
		"fund-loan": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.loans.FundLoan(txn, call.Caller, args.ID, call.Height)
		},
		"repay-loan": func(txn state.Txn, call Call) (any, error) {
			var args repayArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.loans.RepayLoan(txn, call.Caller, args.ID, args.Amount, call.Height)
		},
		"cancel-loan": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.loans.CancelLoan(txn, call.Caller, args.ID)
		},
		"liquidate-loan": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.loans.LiquidateLoan(txn, call.Caller, args.ID, call.Height)
		},
		"set-loan-status": func(txn state.Txn, call Call) (any, error) {
			var args loanStatusArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			status, err := loan.StatusFromLabel(args.Status)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "parse loan status", err)
			}
			return nil, r.loans.SetLoanStatus(txn, call.Caller, args.ID, status)
		},
		"calculate-interest": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.CalculateInterest(txn, args.ID, call.Height)
		},
		"get-total-due": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.GetTotalDue(txn, args.ID, call.Height)
		},
		"get-loan": func(txn state.Txn, call Call) (any, error) {
			var args loanIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.GetLoan(txn, args.ID)
		},
		"get-user-loans": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.GetUserLoans(txn, args.Account)
		},
		"get-loan-count": func(txn state.Txn, call Call) (any, error) {
			return r.loans.GetLoanCount(txn)
		},
		"get-max-loan-amount": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.loans.GetMaxLoanAmount(txn, args.Account)
		},
		"get-required-collateral": func(txn state.Txn, call Call) (any, error) {
			var args collateralArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return loan.RequiredCollateral(args.Amount, args.Score)
		},
		"is-credit-initialized": func(txn state.Txn, call Call) (any, error) {
			return r.loans.IsCreditScoreInitialized(txn)
		},
	}
}
