package vault

import (
	"context"
	"errors"
)

// SubmitTransaction creates a pending transaction, records an implicit
// confirmation from the caller and attempts immediate execution. A quorum
// shortfall or a failed outbound call is not an error at submission time.
func (l *Ledger) SubmitTransaction(ctx context.Context, caller, destination string, value uint64, payload []byte) (uint64, error) {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return 0, err
	}
	destination, err = NormalizeAccountID(destination)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	if !l.isOwner[caller] {
		l.mu.Unlock()
		return 0, ErrNotOwner
	}
	id := l.txCount
	l.txCount++
	l.transactions[id] = &Transaction{
		ID:          id,
		Destination: destination,
		Value:       value,
		Payload:     append([]byte(nil), payload...),
		SubmittedAt: l.clock(),
		SubmittedBy: caller,
	}
	l.confirmations[id] = map[string]bool{caller: true}
	l.appendEventLocked(Event{Kind: EventSubmission, TxID: id, Account: caller, Value: value})
	l.appendEventLocked(Event{Kind: EventConfirmation, TxID: id, Account: caller})
	l.persistLocked()
	l.mu.Unlock()

	l.tryExecute(ctx, caller, id)
	return id, nil
}

// ConfirmTransaction records the caller's confirmation and attempts execution.
func (l *Ledger) ConfirmTransaction(ctx context.Context, caller string, id uint64) error {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if !l.isOwner[caller] {
		l.mu.Unlock()
		return ErrNotOwner
	}
	if _, ok := l.transactions[id]; !ok {
		l.mu.Unlock()
		return ErrTransactionNotFound
	}
	if l.confirmations[id][caller] {
		l.mu.Unlock()
		return ErrAlreadyConfirmed
	}
	if l.confirmations[id] == nil {
		l.confirmations[id] = map[string]bool{}
	}
	l.confirmations[id][caller] = true
	l.appendEventLocked(Event{Kind: EventConfirmation, TxID: id, Account: caller})
	l.persistLocked()
	l.mu.Unlock()

	l.tryExecute(ctx, caller, id)
	return nil
}

// RevokeConfirmation clears the caller's confirmation on a not-yet-executed
// transaction.
func (l *Ledger) RevokeConfirmation(caller string, id uint64) error {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isOwner[caller] {
		return ErrNotOwner
	}
	tx, ok := l.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	if tx.Executed {
		return ErrAlreadyExecuted
	}
	if !l.confirmations[id][caller] {
		return ErrNotConfirmed
	}
	delete(l.confirmations[id], caller)
	l.appendEventLocked(Event{Kind: EventRevocation, TxID: id, Account: caller})
	l.persistLocked()
	return nil
}

// tryExecute is the attempt path used by submit and confirm: a quorum
// shortfall and an outbound call failure (already recorded as a failure
// event) are swallowed, everything else is logged.
func (l *Ledger) tryExecute(ctx context.Context, caller string, id uint64) {
	err := l.ExecuteTransaction(ctx, caller, id)
	switch {
	case err == nil:
	case errors.Is(err, ErrConfirmationsBelowThreshold):
	case errors.Is(err, ErrExternalCallFailed):
	default:
		l.log.Warn("transaction auto-execution rejected", "tx_id", id, "error", err)
	}
}

// ExecuteTransaction runs a confirmed transaction. The executed flag flips and
// value leaves the escrow balance before the outbound call, so a re-entrant
// attempt during the call observes an executed transaction. On call failure
// both are rolled back and a failure event is recorded; the transaction stays
// retryable.
func (l *Ledger) ExecuteTransaction(ctx context.Context, caller string, id uint64) error {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if !l.isOwner[caller] {
		l.mu.Unlock()
		return ErrNotOwner
	}
	tx, ok := l.transactions[id]
	if !ok {
		l.mu.Unlock()
		return ErrTransactionNotFound
	}
	if tx.Executed {
		l.mu.Unlock()
		return ErrAlreadyExecuted
	}
	if !l.confirmedLocked(id) {
		l.mu.Unlock()
		return ErrConfirmationsBelowThreshold
	}

	if tx.Destination == l.selfID {
		if err := l.applyAdminLocked(tx); err != nil {
			l.mu.Unlock()
			return err
		}
		tx.Executed = true
		l.appendEventLocked(Event{Kind: EventExecution, TxID: id, Account: caller})
		l.persistLocked()
		l.mu.Unlock()
		return nil
	}

	if tx.Value > l.balance {
		l.appendEventLocked(Event{Kind: EventExecutionFailure, TxID: id, Account: caller, Detail: "insufficient escrow balance"})
		l.persistLocked()
		l.mu.Unlock()
		return ErrExternalCallFailed
	}
	tx.Executed = true
	l.balance -= tx.Value
	destination, value, payload := tx.Destination, tx.Value, tx.Payload
	l.mu.Unlock()

	ok = l.gateway.Call(ctx, destination, value, payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !ok {
		tx.Executed = false
		l.balance += value
		l.appendEventLocked(Event{Kind: EventExecutionFailure, TxID: id, Account: caller})
		l.persistLocked()
		return ErrExternalCallFailed
	}
	l.appendEventLocked(Event{Kind: EventExecution, TxID: id, Account: caller, Value: value})
	l.persistLocked()
	return nil
}

// IsConfirmed reports whether confirmations reached the threshold.
func (l *Ledger) IsConfirmed(id uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.transactions[id]; !ok {
		return false, ErrTransactionNotFound
	}
	return l.confirmedLocked(id), nil
}

// confirmedLocked scans owners in order and exits as soon as the running count
// reaches the threshold.
func (l *Ledger) confirmedLocked(id uint64) bool {
	confirmed := l.confirmations[id]
	count := 0
	for _, owner := range l.owners {
		if confirmed[owner] {
			count++
		}
		if count >= l.required {
			return true
		}
	}
	return false
}
