// Package txhistory records protocol transactions and maintains per-user and
// protocol-wide aggregates. Successful records feed a transaction-derived
// score back into the creditscore ledger for senders that hold a profile.
package txhistory

import (
	"fmt"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

// MaxUserTransactions bounds the per-user recent transaction index. Older
// ids fall off the front; the transactions themselves stay addressable by id.
const MaxUserTransactions = 100

// FailedTransactionPenalty is the score deduction for a recorded failure.
const FailedTransactionPenalty = 5

var (
	// ErrUnauthorized indicates the caller is not the admin or an
	// authorized recorder.
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not an authorized recorder")
	// ErrInvalidInput indicates a malformed transaction record.
	ErrInvalidInput = apperrors.New(apperrors.CodeInvalidInput, "invalid transaction record")
	// ErrTransactionNotFound indicates an unknown transaction id.
	ErrTransactionNotFound = apperrors.New(apperrors.CodeNotFound, "transaction not found")
)

// Transaction is a single recorded transfer. The recipient is optional;
// protocol names the venue the transfer went through. Metadata is free-form
// and opaque to the ledger.
type Transaction struct {
	ID        uint64          `json:"id"`
	Sender    chain.Principal `json:"sender"`
	Recipient chain.Principal `json:"recipient,omitempty"`
	Amount    uint64          `json:"amount"`
	TxType    string          `json:"tx_type"`
	Protocol  string          `json:"protocol"`
	Success   bool            `json:"success"`
	Metadata  string          `json:"metadata,omitempty"`
	Block     uint64          `json:"block"`
}

// Record is the input shape for recording. Recipient may be empty.
type Record struct {
	Sender    chain.Principal
	Recipient chain.Principal
	Amount    uint64
	TxType    string
	Protocol  string
	Success   bool
	Metadata  string
}

// UserStats aggregates a principal's transaction activity. Counts cover
// every transaction the principal appears in as sender; received volume is
// tracked separately.
type UserStats struct {
	TotalSent          uint64 `json:"total_sent"`
	TotalReceived      uint64 `json:"total_received"`
	TransactionCount   uint64 `json:"transaction_count"`
	SuccessfulCount    uint64 `json:"successful_count"`
	FailedTransactions uint64 `json:"failed_transactions"`
	FirstTxBlock       uint64 `json:"first_tx_block,omitempty"`
	LastTxBlock        uint64 `json:"last_tx_block,omitempty"`
}

// ProtocolStats aggregates activity for one protocol across all users.
type ProtocolStats struct {
	TotalTransactions uint64 `json:"total_transactions"`
	TotalVolume       uint64 `json:"total_volume"`
	UniqueUsers       uint64 `json:"unique_users"`
}

type meta struct {
	TransactionCount uint64 `json:"transaction_count"`
}

// Ledger is the transaction history component. Score writes go through the
// creditscore ledger under the component's own principal.
type Ledger struct {
	admin  chain.Principal
	self   chain.Principal
	credit *creditscore.Ledger
}

// New returns a transaction history ledger. admin gates the recorder allow
// list; self is the component principal used for nested creditscore calls.
func New(admin, self chain.Principal, credit *creditscore.Ledger) *Ledger {
	return &Ledger{admin: admin, self: self, credit: credit}
}

const metaKey = "meta"

func txKey(id uint64) string {
	return fmt.Sprintf("tx/%d", id)
}

func protocolStatsKey(protocol string) string {
	return "protocol/" + protocol
}

func userKey(account chain.Principal) string {
	return "user/" + string(account)
}

func statsKey(account chain.Principal) string {
	return "stats/" + string(account)
}

func seenKey(protocol string, account chain.Principal) string {
	return "seen/" + protocol + "/" + string(account)
}

func recorderKey(account chain.Principal) string {
	return "recorder/" + string(account)
}
