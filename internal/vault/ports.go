package vault

import "context"

// Gateway performs a bounded outbound call to another principal. It reports
// only success or failure, discards any returned data, and never panics; the
// ledger owns rolling back its own state when the call fails. While control is
// with the destination principal, that principal may call back into the ledger.
type Gateway interface {
	Call(ctx context.Context, destination string, value uint64, payload []byte) bool
}

// OperatorRegistry is the external collaborator that vouches for delegated
// operators and tracks subscription registrations. Referenced by identifier
// only; the ledger never owns its state.
type OperatorRegistry interface {
	IsOperator(account string) bool
	HandleNewSubscription(destination, vaultID string, subscriptionID uint64, externalID string) error
}

// TokenService settles delegated-allowance subscriptions by moving value from
// the subscription's settlement wallet.
type TokenService interface {
	TransferOnBehalf(from, to string, value uint64) bool
}

// PaymentTracker is the optional payment-tracking collaborator notified after
// each successful subscription execution.
type PaymentTracker interface {
	HandlePaymentNotification(destination string, subscriptionID uint64, externalID string, firstCycle bool) error
}

// Notifier delivers best-effort collaborator callbacks. Implementations must
// contain their own failures: a notification must never surface an error into
// the ledger mutation that triggered it.
type Notifier interface {
	SubscriptionCreated(destination, vaultID string, subscriptionID uint64, externalID string)
	PaymentExecuted(destination string, subscriptionID uint64, externalID string, firstCycle bool)
}

// MetadataDecoder turns a subscription's ordered raw metadata fields into
// typed values. Decoding rules live with the collaborator, not the ledger.
type MetadataDecoder interface {
	DecodeSubscriptionMeta(variant SettlementVariant, fields []string) (DecodedMeta, error)
}
