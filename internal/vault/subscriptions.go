package vault

import (
	"context"
	"fmt"
	"time"
)

// SubmitSubscription validates and registers a recurring withdrawal, notifies
// the registry collaborator, and immediately runs the first cycle when payment
// preconditions already hold: the attached value covers the subscription
// value, the escrow balance covers it, or a non-empty payload signals
// externally arranged funding.
func (l *Ledger) SubmitSubscription(ctx context.Context, caller, destination, recipient string, value, attachedValue uint64, period time.Duration, variant SettlementVariant, payload []byte, meta []string) (uint64, error) {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return 0, err
	}
	destination, err = NormalizeAccountID(destination)
	if err != nil {
		return 0, err
	}
	recipient, err = NormalizeAccountID(recipient)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, ErrInvalidValue
	}
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if !variant.Valid() {
		return 0, ErrUnsupportedVariant
	}
	if len(meta) < variant.MetadataArity() {
		return 0, fmt.Errorf("%w: variant %s requires %d fields, got %d", ErrBadMetadata, variant, variant.MetadataArity(), len(meta))
	}
	decoded, err := l.decoder.DecodeSubscriptionMeta(variant, meta)
	if err != nil {
		return 0, err
	}
	if variant == VariantDelegatedAllowance {
		if decoded.SettlementWallet, err = NormalizeAccountID(decoded.SettlementWallet); err != nil {
			return 0, fmt.Errorf("%w: settlement wallet: %w", ErrBadMetadata, err)
		}
	}

	l.mu.Lock()
	if !l.isOwner[caller] {
		l.mu.Unlock()
		return 0, ErrNotOwner
	}
	now := l.clock()
	id := l.subCount
	l.subCount++
	sub := &Subscription{
		ID:               id,
		Destination:      destination,
		Recipient:        recipient,
		SettlementWallet: decoded.SettlementWallet,
		Value:            value,
		Variant:          variant,
		CreatedAt:        now,
		ExpiresAt:        decoded.ExpiresAt,
		Period:           period,
		WithdrawNext:     now.Add(decoded.FirstWindowAfter),
		ExternalID:       decoded.ExternalID,
		Payload:          append([]byte(nil), payload...),
		Meta:             append([]string(nil), meta...),
	}
	l.subscriptions[id] = sub
	if attachedValue > 0 {
		l.balance += attachedValue
		l.appendEventLocked(Event{Kind: EventDeposit, Account: caller, Value: attachedValue})
	}
	l.appendEventLocked(Event{Kind: EventSubscriptionAdded, SubID: id, Account: caller, Value: value})
	firstCycleFunded := attachedValue >= value || l.balance >= value || len(payload) > 0
	l.persistLocked()
	l.mu.Unlock()

	if l.notifier != nil {
		l.notifier.SubscriptionCreated(destination, l.selfID, id, decoded.ExternalID)
	}

	if firstCycleFunded {
		if err := l.ExecuteSubscription(ctx, caller, id); err != nil {
			l.log.Warn("first subscription cycle did not execute", "sub_id", id, "error", err)
		}
	}
	return id, nil
}

// CancelSubscription terminates a subscription by expiring it now. No other
// field changes; there is no separate cancelled flag.
func (l *Ledger) CancelSubscription(caller string, id uint64) error {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isOwner[caller] {
		return ErrNotOwner
	}
	sub, ok := l.subscriptions[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.ExpiresAt = l.clock()
	l.appendEventLocked(Event{Kind: EventSubscriptionCancelled, SubID: id, Account: caller})
	l.persistLocked()
	return nil
}

// ExecuteSubscription runs one withdrawal cycle. The caller must be an owner
// or an operator recognized by the registry collaborator; delegation is what
// lets non-owners trigger recurring withdrawals without a fresh quorum vote.
// Cycle bookkeeping advances only after the settlement call reports success;
// nothing is optimistically advanced beforehand.
func (l *Ledger) ExecuteSubscription(ctx context.Context, caller string, id uint64) error {
	caller, err := NormalizeAccountID(caller)
	if err != nil {
		return err
	}

	l.mu.Lock()
	authorized := l.isOwner[caller]
	l.mu.Unlock()
	if !authorized {
		if l.registry == nil || !l.registry.IsOperator(caller) {
			return ErrNotOperator
		}
	}

	l.mu.Lock()
	sub, ok := l.subscriptions[id]
	if !ok {
		l.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	if l.subInFlight[id] {
		l.mu.Unlock()
		return ErrExecutionInFlight
	}
	now := l.clock()
	// Expiry first: cancellation is expressed solely as ExpiresAt = now, so an
	// expired row must be rejected before any other eligibility test.
	if !now.Before(sub.ExpiresAt) {
		l.mu.Unlock()
		return ErrSubscriptionExpired
	}
	if sub.Paused {
		l.mu.Unlock()
		return ErrSubscriptionPaused
	}
	if now.Before(sub.WithdrawNext) {
		l.mu.Unlock()
		return ErrNotYetDue
	}

	var settled bool
	switch sub.Variant {
	case VariantDirectEscrow:
		if l.balance < sub.Value {
			l.appendEventLocked(Event{Kind: EventSubscriptionExecFailed, SubID: id, Account: caller, Detail: "insufficient escrow balance"})
			l.persistLocked()
			l.mu.Unlock()
			return ErrExternalCallFailed
		}
		l.balance -= sub.Value
		l.subInFlight[id] = true
		destination, value, payload := sub.Destination, sub.Value, sub.Payload
		l.mu.Unlock()

		settled = l.gateway.Call(ctx, destination, value, payload)

		l.mu.Lock()
		delete(l.subInFlight, id)
		if !settled {
			l.balance += value
		}
	case VariantDelegatedAllowance:
		l.subInFlight[id] = true
		from, to, value := sub.SettlementWallet, sub.Recipient, sub.Value
		l.mu.Unlock()

		settled = l.token != nil && l.token.TransferOnBehalf(from, to, value)

		l.mu.Lock()
		delete(l.subInFlight, id)
	case VariantEscrowToken:
		// Declared but without a settlement path; failing fast beats a silent
		// no-op. See DESIGN.md.
		l.mu.Unlock()
		return fmt.Errorf("%w: %s has no settlement dispatch", ErrUnsupportedVariant, sub.Variant)
	default:
		l.mu.Unlock()
		return ErrUnsupportedVariant
	}

	if !settled {
		l.appendEventLocked(Event{Kind: EventSubscriptionExecFailed, SubID: id, Account: caller})
		l.persistLocked()
		l.mu.Unlock()
		return ErrExternalCallFailed
	}
	firstCycle := sub.Cycle == 0
	sub.WithdrawPrev = now
	sub.Cycle++
	sub.WithdrawNext = nextWithdrawal(sub.CreatedAt, sub.Period, sub.Cycle)
	l.appendEventLocked(Event{Kind: EventSubscriptionExecuted, SubID: id, Account: caller, Value: sub.Value})
	l.persistLocked()
	destination, externalID := sub.Destination, sub.ExternalID
	l.mu.Unlock()

	if l.notifier != nil {
		l.notifier.PaymentExecuted(destination, id, externalID, firstCycle)
	}
	return nil
}

// nextWithdrawal anchors each window to the subscription origin rather than
// the previous withdrawal: created + period*cycle. A missed cycle therefore
// leaves the following window already open instead of pushing it out.
func nextWithdrawal(created time.Time, period time.Duration, cycle uint64) time.Time {
	return created.Add(time.Duration(cycle) * period)
}
