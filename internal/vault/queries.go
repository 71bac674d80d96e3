package vault

// Read-only query surface. Reads never mutate state; list reads clamp their
// ranges and copy out rows so callers cannot alias ledger internals.

const (
	maxListLimit = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// Owners returns the owner list in insertion order.
func (l *Ledger) Owners() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.owners...)
}

// Required returns the confirmation threshold.
func (l *Ledger) Required() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.required
}

// Balance returns the vault escrow balance.
func (l *Ledger) Balance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Transaction returns a copy of one transaction row.
func (l *Ledger) Transaction(id uint64) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	out := *tx
	out.Payload = append([]byte(nil), tx.Payload...)
	return out, nil
}

// Subscription returns a copy of one subscription row.
func (l *Ledger) Subscription(id uint64) (Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sub, ok := l.subscriptions[id]
	if !ok {
		return Subscription{}, ErrSubscriptionNotFound
	}
	out := *sub
	out.Payload = append([]byte(nil), sub.Payload...)
	out.Meta = append([]string(nil), sub.Meta...)
	return out, nil
}

// Confirmations lists the owners that confirmed the transaction, in owner
// order.
func (l *Ledger) Confirmations(id uint64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.transactions[id]; !ok {
		return nil, ErrTransactionNotFound
	}
	confirmed := l.confirmations[id]
	out := make([]string, 0, len(confirmed))
	for _, owner := range l.owners {
		if confirmed[owner] {
			out = append(out, owner)
		}
	}
	return out, nil
}

// ConfirmationCount counts confirmations from current owners.
func (l *Ledger) ConfirmationCount(id uint64) (int, error) {
	confirmers, err := l.Confirmations(id)
	if err != nil {
		return 0, err
	}
	return len(confirmers), nil
}

// TransactionCount counts transactions matching the pending/executed filters.
func (l *Ledger) TransactionCount(pending, executed bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for id := uint64(0); id < l.txCount; id++ {
		if l.txMatchesLocked(id, pending, executed) {
			count++
		}
	}
	return count
}

// TransactionIDs returns up to limit matching ids starting at from, ascending.
func (l *Ledger) TransactionIDs(from uint64, limit int, pending, executed bool) []uint64 {
	limit = clampLimit(limit)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]uint64, 0, limit)
	for id := from; id < l.txCount && len(out) < limit; id++ {
		if l.txMatchesLocked(id, pending, executed) {
			out = append(out, id)
		}
	}
	return out
}

func (l *Ledger) txMatchesLocked(id uint64, pending, executed bool) bool {
	tx, ok := l.transactions[id]
	if !ok {
		return false
	}
	return (pending && !tx.Executed) || (executed && tx.Executed)
}

// SubscriptionCount counts subscriptions matching the withdrawable/expired
// filters against the current clock.
func (l *Ledger) SubscriptionCount(withdrawable, expired bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for id := uint64(0); id < l.subCount; id++ {
		if l.subMatchesLocked(id, withdrawable, expired) {
			count++
		}
	}
	return count
}

// SubscriptionIDs returns up to limit matching ids starting at from, ascending.
func (l *Ledger) SubscriptionIDs(from uint64, limit int, withdrawable, expired bool) []uint64 {
	limit = clampLimit(limit)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]uint64, 0, limit)
	for id := from; id < l.subCount && len(out) < limit; id++ {
		if l.subMatchesLocked(id, withdrawable, expired) {
			out = append(out, id)
		}
	}
	return out
}

func (l *Ledger) subMatchesLocked(id uint64, withdrawable, expired bool) bool {
	sub, ok := l.subscriptions[id]
	if !ok {
		return false
	}
	now := l.clock()
	isExpired := !now.Before(sub.ExpiresAt)
	isWithdrawable := !isExpired && !sub.Paused && !now.Before(sub.WithdrawNext)
	return (withdrawable && isWithdrawable) || (expired && isExpired)
}

// Events returns a slice of the append-only event log.
func (l *Ledger) Events(offset uint64, limit int) []Event {
	limit = clampLimit(limit)
	l.mu.Lock()
	defer l.mu.Unlock()
	if offset >= uint64(len(l.events)) {
		return nil
	}
	end := offset + uint64(limit)
	if end > uint64(len(l.events)) {
		end = uint64(len(l.events))
	}
	return append([]Event(nil), l.events[offset:end]...)
}

// EventCount returns the event log length.
func (l *Ledger) EventCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eventSeq
}
