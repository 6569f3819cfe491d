package txhistory

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// AuthorizeRecorder adds a principal to the recorder allow-list. Admin only.
func (l *Ledger) AuthorizeRecorder(txn state.Txn, caller, recorder chain.Principal) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	return txn.Put(state.NamespaceTxHistory, recorderKey(recorder), []byte("1"))
}

// RevokeRecorder removes a principal from the recorder allow-list. Admin only.
func (l *Ledger) RevokeRecorder(txn state.Txn, caller, recorder chain.Principal) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	return txn.Delete(state.NamespaceTxHistory, recorderKey(recorder))
}

// IsAuthorizedRecorder reports allow-list membership. The admin is always a
// recorder.
func (l *Ledger) IsAuthorizedRecorder(txn state.Txn, account chain.Principal) (bool, error) {
	if account == l.admin {
		return true, nil
	}
	_, ok, err := txn.Get(state.NamespaceTxHistory, recorderKey(account))
	return ok, err
}

// RecordTransaction records a transfer observed by an authorized recorder
// and returns the new transaction id. Aggregates for the sender, the
// recipient if present, and the protocol are updated, and the sender's
// transaction-derived score is written to the creditscore ledger when the
// sender holds a profile.
func (l *Ledger) RecordTransaction(txn state.Txn, caller chain.Principal, rec Record, at chain.Height) (uint64, error) {
	ok, err := l.IsAuthorizedRecorder(txn, caller)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnauthorized
	}
	return l.record(txn, rec, at)
}

// RecordSelfTransaction records a transfer reported by its own sender. The
// caller must hold recorder authorization for itself. The record is always
// marked successful; failures go through RecordFailedTransaction.
func (l *Ledger) RecordSelfTransaction(txn state.Txn, caller chain.Principal, amount uint64, txType, protocol, metadata string, at chain.Height) (uint64, error) {
	ok, err := l.IsAuthorizedRecorder(txn, caller)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnauthorized
	}
	rec := Record{Sender: caller, Amount: amount, TxType: txType, Protocol: protocol, Success: true, Metadata: metadata}
	return l.record(txn, rec, at)
}

// BatchRecordTransactions records every entry in order and returns the ids.
// An empty batch is a no-op. Validation failures abort the batch; the caller
// decides whether to commit or roll back the surrounding transaction.
func (l *Ledger) BatchRecordTransactions(txn state.Txn, caller chain.Principal, recs []Record, at chain.Height) ([]uint64, error) {
	ok, err := l.IsAuthorizedRecorder(txn, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	if len(recs) == 0 {
		return nil, nil
	}
	ids := make([]uint64, 0, len(recs))
	for _, rec := range recs {
		id, err := l.record(txn, rec, at)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RecordFailedTransaction notes a failed transaction for an account on a
// protocol and applies a small score penalty. Scores already below the
// penalty threshold are left unchanged.
func (l *Ledger) RecordFailedTransaction(txn state.Txn, caller, account chain.Principal, protocol string, at chain.Height) error {
	ok, err := l.IsAuthorizedRecorder(txn, caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	if account.IsZero() || protocol == "" {
		return ErrInvalidInput
	}
	stats, err := l.loadUserStats(txn, account)
	if err != nil {
		return err
	}
	stats.FailedTransactions++
	if err := state.PutJSON(txn, state.NamespaceTxHistory, statsKey(account), stats); err != nil {
		return err
	}

	hasProfile, err := l.credit.HasProfile(txn, account)
	if err != nil {
		return err
	}
	if !hasProfile {
		return nil
	}
	score, err := l.credit.GetCreditScore(txn, account)
	if err != nil {
		return err
	}
	if score < 2*FailedTransactionPenalty {
		return nil
	}
	_, err = l.credit.UpdateCreditScore(txn, l.self, account, score-FailedTransactionPenalty, at)
	return err
}

// GetTransaction returns a transaction by id.
func (l *Ledger) GetTransaction(txn state.Txn, id uint64) (Transaction, error) {
	var rec Transaction
	ok, err := state.GetJSON(txn, state.NamespaceTxHistory, txKey(id), &rec)
	if err != nil {
		return Transaction{}, err
	}
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return rec, nil
}

// GetUserTransactions returns the account's most recent transaction ids as
// sender, oldest first, capped at MaxUserTransactions.
func (l *Ledger) GetUserTransactions(txn state.Txn, account chain.Principal) ([]uint64, error) {
	var ids []uint64
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, userKey(account), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserStats returns the account's aggregates. Accounts that never
// transacted report zero values.
func (l *Ledger) GetUserStats(txn state.Txn, account chain.Principal) (UserStats, error) {
	return l.loadUserStats(txn, account)
}

// GetProtocolStats returns a protocol's aggregates. Protocols that never saw
// a transaction report zero values.
func (l *Ledger) GetProtocolStats(txn state.Txn, protocol string) (ProtocolStats, error) {
	var stats ProtocolStats
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, protocolStatsKey(protocol), &stats); err != nil {
		return ProtocolStats{}, err
	}
	return stats, nil
}

// GetTransactionCount returns the number of transactions ever recorded.
func (l *Ledger) GetTransactionCount(txn state.Txn) (uint64, error) {
	var mt meta
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, metaKey, &mt); err != nil {
		return 0, err
	}
	return mt.TransactionCount, nil
}

func (l *Ledger) record(txn state.Txn, rec Record, at chain.Height) (uint64, error) {
	if rec.Sender.IsZero() || rec.TxType == "" || rec.Protocol == "" || rec.Amount == 0 {
		return 0, ErrInvalidInput
	}

	var mt meta
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, metaKey, &mt); err != nil {
		return 0, err
	}
	mt.TransactionCount++
	id := mt.TransactionCount

	stored := Transaction{
		ID:        id,
		Sender:    rec.Sender,
		Recipient: rec.Recipient,
		Amount:    rec.Amount,
		TxType:    rec.TxType,
		Protocol:  rec.Protocol,
		Success:   rec.Success,
		Metadata:  rec.Metadata,
		Block:     uint64(at),
	}
	if err := state.PutJSON(txn, state.NamespaceTxHistory, txKey(id), stored); err != nil {
		return 0, err
	}
	if err := state.PutJSON(txn, state.NamespaceTxHistory, metaKey, mt); err != nil {
		return 0, err
	}
	if err := l.appendUserTransaction(txn, rec.Sender, id); err != nil {
		return 0, err
	}
	if err := l.updateSenderStats(txn, rec, at); err != nil {
		return 0, err
	}
	if err := l.updateRecipientStats(txn, rec); err != nil {
		return 0, err
	}
	if err := l.updateProtocolStats(txn, rec); err != nil {
		return 0, err
	}
	if err := l.writeTransactionScore(txn, rec.Sender, at); err != nil {
		return 0, err
	}
	return id, nil
}

func (l *Ledger) appendUserTransaction(txn state.Txn, account chain.Principal, id uint64) error {
	var ids []uint64
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, userKey(account), &ids); err != nil {
		return err
	}
	ids = append(ids, id)
	if len(ids) > MaxUserTransactions {
		ids = ids[len(ids)-MaxUserTransactions:]
	}
	return state.PutJSON(txn, state.NamespaceTxHistory, userKey(account), ids)
}

func (l *Ledger) updateSenderStats(txn state.Txn, rec Record, at chain.Height) error {
	stats, err := l.loadUserStats(txn, rec.Sender)
	if err != nil {
		return err
	}
	stats.TotalSent += rec.Amount
	stats.TransactionCount++
	if rec.Success {
		stats.SuccessfulCount++
	}
	if stats.FirstTxBlock == 0 {
		stats.FirstTxBlock = uint64(at)
	}
	stats.LastTxBlock = uint64(at)
	return state.PutJSON(txn, state.NamespaceTxHistory, statsKey(rec.Sender), stats)
}

func (l *Ledger) updateRecipientStats(txn state.Txn, rec Record) error {
	if rec.Recipient.IsZero() {
		return nil
	}
	stats, err := l.loadUserStats(txn, rec.Recipient)
	if err != nil {
		return err
	}
	stats.TotalReceived += rec.Amount
	return state.PutJSON(txn, state.NamespaceTxHistory, statsKey(rec.Recipient), stats)
}

func (l *Ledger) updateProtocolStats(txn state.Txn, rec Record) error {
	var stats ProtocolStats
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, protocolStatsKey(rec.Protocol), &stats); err != nil {
		return err
	}
	stats.TotalTransactions++
	stats.TotalVolume += rec.Amount
	for _, account := range []chain.Principal{rec.Sender, rec.Recipient} {
		if account.IsZero() {
			continue
		}
		_, seen, err := txn.Get(state.NamespaceTxHistory, seenKey(rec.Protocol, account))
		if err != nil {
			return err
		}
		if seen {
			continue
		}
		if err := txn.Put(state.NamespaceTxHistory, seenKey(rec.Protocol, account), []byte("1")); err != nil {
			return err
		}
		stats.UniqueUsers++
	}
	return state.PutJSON(txn, state.NamespaceTxHistory, protocolStatsKey(rec.Protocol), stats)
}

// writeTransactionScore pushes the sender's activity-derived score into the
// creditscore ledger. Senders without a credit profile are skipped; other
// creditscore failures propagate and abort the record.
func (l *Ledger) writeTransactionScore(txn state.Txn, account chain.Principal, at chain.Height) error {
	hasProfile, err := l.credit.HasProfile(txn, account)
	if err != nil {
		return err
	}
	if !hasProfile {
		return nil
	}
	score, err := l.CalculateTransactionScore(txn, account, at)
	if err != nil {
		return err
	}
	_, err = l.credit.UpdateCreditScore(txn, l.self, account, score, at)
	return err
}

func (l *Ledger) loadUserStats(txn state.Txn, account chain.Principal) (UserStats, error) {
	var stats UserStats
	if _, err := state.GetJSON(txn, state.NamespaceTxHistory, statsKey(account), &stats); err != nil {
		return UserStats{}, err
	}
	return stats, nil
}
