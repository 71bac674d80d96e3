// Package relay delivers best-effort collaborator callbacks after subscription
// creation and execution. A relay failure never surfaces into the ledger
// mutation that triggered it: panics are recovered and errors are only logged.
package relay

import (
	"log/slog"

	"covault/go-backend/internal/vault"
)

type Relay struct {
	registry vault.OperatorRegistry
	tracker  vault.PaymentTracker
	log      *slog.Logger
}

// New builds a relay over the registry and the optional payment tracker;
// either collaborator may be nil.
func New(registry vault.OperatorRegistry, tracker vault.PaymentTracker, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{registry: registry, tracker: tracker, log: logger}
}

// SubscriptionCreated notifies the registry of a newly registered
// subscription, fire-and-forget.
func (r *Relay) SubscriptionCreated(destination, vaultID string, subscriptionID uint64, externalID string) {
	if r.registry == nil {
		return
	}
	defer r.recoverNotify("new subscription", subscriptionID)
	if err := r.registry.HandleNewSubscription(destination, vaultID, subscriptionID, externalID); err != nil {
		r.log.Warn("new-subscription notification failed", "sub_id", subscriptionID, "error", err)
	}
}

// PaymentExecuted notifies the payment tracker of a successful cycle.
func (r *Relay) PaymentExecuted(destination string, subscriptionID uint64, externalID string, firstCycle bool) {
	if r.tracker == nil {
		return
	}
	defer r.recoverNotify("payment", subscriptionID)
	if err := r.tracker.HandlePaymentNotification(destination, subscriptionID, externalID, firstCycle); err != nil {
		r.log.Warn("payment notification failed", "sub_id", subscriptionID, "first_cycle", firstCycle, "error", err)
	}
}

func (r *Relay) recoverNotify(what string, subscriptionID uint64) {
	if rec := recover(); rec != nil {
		r.log.Warn("notification handler panicked", "notification", what, "sub_id", subscriptionID, "panic", rec)
	}
}
