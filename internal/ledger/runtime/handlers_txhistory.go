package runtime

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
	"github.com/calderafi/caldera/internal/ledger/txhistory"
)

type recorderArgs struct {
	Recorder chain.Principal `json:"recorder"`
}

type recordArgs struct {
	Sender    chain.Principal `json:"sender"`
	Recipient chain.Principal `json:"recipient,omitempty"`
	Amount    uint64          `json:"amount"`
	TxType    string          `json:"tx_type"`
	Protocol  string          `json:"protocol"`
	Success   bool            `json:"success"`
	Metadata  string          `json:"metadata,omitempty"`
}

type selfRecordArgs struct {
	Amount   uint64 `json:"amount"`
	TxType   string `json:"tx_type"`
	Protocol string `json:"protocol"`
	Metadata string `json:"metadata,omitempty"`
}

type batchRecordArgs struct {
	Records []recordArgs `json:"records"`
}

type failedTxArgs struct {
	Account  chain.Principal `json:"account"`
	Protocol string          `json:"protocol"`
}

type protocolArgs struct {
	Protocol string `json:"protocol"`
}

type txIDArgs struct {
	ID uint64 `json:"id"`
}

func (args recordArgs) toRecord() txhistory.Record {
	return txhistory.Record{
		Sender:    args.Sender,
		Recipient: args.Recipient,
		Amount:    args.Amount,
		TxType:    args.TxType,
		Protocol:  args.Protocol,
		Success:   args.Success,
		Metadata:  args.Metadata,
	}
}

func (r *Runtime) historyHandlers() map[string]handler {
	return map[string]handler{
		"authorize-recorder": func(txn state.Txn, call Call) (any, error) {
			var args recorderArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.history.AuthorizeRecorder(txn, call.Caller, args.Recorder)
		},
		"revoke-recorder": func(txn state.Txn, call Call) (any, error) {
			var args recorderArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.history.RevokeRecorder(txn, call.Caller, args.Recorder)
		},
		"is-authorized-recorder": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.IsAuthorizedRecorder(txn, args.Account)
		},
		"record-transaction": func(txn state.Txn, call Call) (any, error) {
			var args recordArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.RecordTransaction(txn, call.Caller, args.toRecord(), call.Height)
		},
		"record-self-transaction": func(txn state.Txn, call Call) (any, error) {
			var args selfRecordArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.RecordSelfTransaction(txn, call.Caller, args.Amount, args.TxType, args.Protocol, args.Metadata, call.Height)
		},
		"batch-record-transactions": func(txn state.Txn, call Call) (any, error) {
			var args batchRecordArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			recs := make([]txhistory.Record, 0, len(args.Records))
			for _, rec := range args.Records {
				recs = append(recs, rec.toRecord())
			}
			return r.history.BatchRecordTransactions(txn, call.Caller, recs, call.Height)
		},
		"record-failed-transaction": func(txn state.Txn, call Call) (any, error) {
			var args failedTxArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.history.RecordFailedTransaction(txn, call.Caller, args.Account, args.Protocol, call.Height)
		},
		"calculate-transaction-score": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.CalculateTransactionScore(txn, args.Account, call.Height)
		},
		"get-transaction": func(txn state.Txn, call Call) (any, error) {
			var args txIDArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.GetTransaction(txn, args.ID)
		},
		"get-user-transactions": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.GetUserTransactions(txn, args.Account)
		},
		"get-user-stats": func(txn state.Txn, call Call) (any, error) {
			var args accountArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.GetUserStats(txn, args.Account)
		},
		"get-protocol-stats": func(txn state.Txn, call Call) (any, error) {
			var args protocolArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.history.GetProtocolStats(txn, args.Protocol)
		},
		"get-transaction-count": func(txn state.Txn, call Call) (any, error) {
			return r.history.GetTransactionCount(txn)
		},
	}
}
