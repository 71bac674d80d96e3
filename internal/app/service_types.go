package app

import (
	"context"
	"log/slog"
	"time"

	"covault/go-backend/internal/platform/metrics"
	"covault/go-backend/internal/vault"
)

// VaultAPI is the transport-neutral surface exposed to adapters.
type VaultAPI interface {
	Deposit(from string, value uint64) error

	SubmitTransaction(ctx context.Context, caller, destination string, value uint64, payload []byte) (uint64, error)
	ConfirmTransaction(ctx context.Context, caller string, id uint64) error
	RevokeConfirmation(caller string, id uint64) error
	ExecuteTransaction(ctx context.Context, caller string, id uint64) error
	IsConfirmed(id uint64) (bool, error)

	SubmitSubscription(ctx context.Context, caller, destination, recipient string, value, attachedValue uint64, period time.Duration, variant vault.SettlementVariant, payload []byte, meta []string) (uint64, error)
	CancelSubscription(caller string, id uint64) error
	ExecuteSubscription(ctx context.Context, caller string, id uint64) error

	Owners() []string
	Required() int
	Balance() uint64
	Transaction(id uint64) (vault.Transaction, error)
	Subscription(id uint64) (vault.Subscription, error)
	Confirmations(id uint64) ([]string, error)
	ConfirmationCount(id uint64) (int, error)
	TransactionCount(pending, executed bool) int
	TransactionIDs(from uint64, limit int, pending, executed bool) []uint64
	SubscriptionCount(withdrawable, expired bool) int
	SubscriptionIDs(from uint64, limit int, withdrawable, expired bool) []uint64
	Events(offset uint64, limit int) []vault.Event
	EventCount() uint64
}

// ServiceOptions carries the collaborator ports and runtime hooks composed
// into a Service. Gateway and Decoder are required; the rest are optional.
type ServiceOptions struct {
	Gateway  vault.Gateway
	Registry vault.OperatorRegistry
	Token    vault.TokenService
	Tracker  vault.PaymentTracker
	Decoder  vault.MetadataDecoder

	Clock   vault.Clock
	Logger  *slog.Logger
	Metrics *metrics.Set
}
