package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"covault/go-backend/internal/bootstrap/vaultconfig"
	"covault/go-backend/internal/platform/metrics"
	"covault/go-backend/internal/relay"
	"covault/go-backend/internal/vault"
)

// Service composes the ledger with persistence, collaborator ports, metrics
// and logging. It implements VaultAPI.
type Service struct {
	ledger  *vault.Ledger
	store   *vault.StateStore
	metrics *metrics.Set
	runtime *ServiceMetricsState
	log     *slog.Logger
}

func NewService(cfg vaultconfig.Config, opts ServiceOptions) (*Service, error) {
	if opts.Gateway == nil {
		return nil, errors.New("service requires a call gateway")
	}
	if opts.Decoder == nil {
		return nil, errors.New("service requires a metadata decoder")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	promSet := opts.Metrics
	if promSet == nil {
		promSet = metrics.New()
	}

	store := vault.NewStateStore()
	store.Configure(cfg.SnapshotPath, cfg.SnapshotSecret)
	snap, restored, err := store.Bootstrap()
	if err != nil {
		return nil, err
	}

	ledgerCfg := vault.Config{
		SelfID:     cfg.SelfID,
		Owners:     cfg.Owners,
		Required:   cfg.Required,
		Gateway:    opts.Gateway,
		Registry:   opts.Registry,
		Token:      opts.Token,
		Notifier:   relay.New(opts.Registry, opts.Tracker, logger),
		Decoder:    opts.Decoder,
		CallBudget: cfg.CallBudget,
		Clock:      opts.Clock,
		Logger:     logger,
		Persist:    store.Persist,
	}
	if restored {
		ledgerCfg.Restore = &snap
	}
	ledger, err := vault.NewLedger(ledgerCfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		ledger:  ledger,
		store:   store,
		metrics: promSet,
		runtime: NewServiceMetricsState(),
		log:     logger,
	}, nil
}

// Metrics exposes the prometheus set for the transport layer.
func (s *Service) Metrics() *metrics.Set { return s.metrics }

// RuntimeMetrics exposes the in-process op/error counters.
func (s *Service) RuntimeMetrics() *ServiceMetricsState { return s.runtime }

func (s *Service) Deposit(from string, value uint64) error {
	defer s.runtime.RecordOp("deposit", time.Now())
	if err := s.ledger.Deposit(from, value); err != nil {
		s.runtime.RecordError("ledger")
		return err
	}
	s.metrics.Deposits.Inc()
	s.log.Info("deposit recorded", "from", from, "value", value)
	return nil
}

func (s *Service) SubmitTransaction(ctx context.Context, caller, destination string, value uint64, payload []byte) (uint64, error) {
	defer s.runtime.RecordOp("submit_transaction", time.Now())
	id, err := s.ledger.SubmitTransaction(ctx, caller, destination, value, payload)
	if err != nil {
		s.runtime.RecordError("ledger")
		return 0, err
	}
	s.log.Info("transaction submitted", "tx_id", id, "caller", caller, "value", value)
	return id, nil
}

func (s *Service) ConfirmTransaction(ctx context.Context, caller string, id uint64) error {
	defer s.runtime.RecordOp("confirm_transaction", time.Now())
	if err := s.ledger.ConfirmTransaction(ctx, caller, id); err != nil {
		s.runtime.RecordError("ledger")
		return err
	}
	s.log.Info("transaction confirmed", "tx_id", id, "caller", caller)
	return nil
}

func (s *Service) RevokeConfirmation(caller string, id uint64) error {
	defer s.runtime.RecordOp("revoke_confirmation", time.Now())
	if err := s.ledger.RevokeConfirmation(caller, id); err != nil {
		s.runtime.RecordError("ledger")
		return err
	}
	s.log.Info("confirmation revoked", "tx_id", id, "caller", caller)
	return nil
}

func (s *Service) ExecuteTransaction(ctx context.Context, caller string, id uint64) error {
	defer s.runtime.RecordOp("execute_transaction", time.Now())
	err := s.ledger.ExecuteTransaction(ctx, caller, id)
	switch {
	case err == nil:
		s.metrics.TransactionsExecuted.Inc()
		s.log.Info("transaction executed", "tx_id", id, "caller", caller)
		return nil
	case errors.Is(err, vault.ErrExternalCallFailed):
		s.metrics.TransactionFailures.Inc()
		s.runtime.RecordError("gateway")
		return err
	default:
		s.runtime.RecordError("ledger")
		return err
	}
}

func (s *Service) IsConfirmed(id uint64) (bool, error) {
	return s.ledger.IsConfirmed(id)
}

func (s *Service) SubmitSubscription(ctx context.Context, caller, destination, recipient string, value, attachedValue uint64, period time.Duration, variant vault.SettlementVariant, payload []byte, meta []string) (uint64, error) {
	defer s.runtime.RecordOp("submit_subscription", time.Now())
	id, err := s.ledger.SubmitSubscription(ctx, caller, destination, recipient, value, attachedValue, period, variant, payload, meta)
	if err != nil {
		s.runtime.RecordError("ledger")
		return 0, err
	}
	s.metrics.SubscriptionsSubmitted.Inc()
	s.log.Info("subscription submitted", "sub_id", id, "caller", caller, "variant", string(variant))
	return id, nil
}

func (s *Service) CancelSubscription(caller string, id uint64) error {
	defer s.runtime.RecordOp("cancel_subscription", time.Now())
	if err := s.ledger.CancelSubscription(caller, id); err != nil {
		s.runtime.RecordError("ledger")
		return err
	}
	s.log.Info("subscription cancelled", "sub_id", id, "caller", caller)
	return nil
}

func (s *Service) ExecuteSubscription(ctx context.Context, caller string, id uint64) error {
	defer s.runtime.RecordOp("execute_subscription", time.Now())
	err := s.ledger.ExecuteSubscription(ctx, caller, id)
	switch {
	case err == nil:
		s.metrics.SubscriptionsExecuted.Inc()
		s.log.Info("subscription cycle executed", "sub_id", id, "caller", caller)
		return nil
	case errors.Is(err, vault.ErrExternalCallFailed):
		s.metrics.SubscriptionFailures.Inc()
		s.runtime.RecordError("gateway")
		return err
	default:
		s.runtime.RecordError("ledger")
		return err
	}
}

func (s *Service) Owners() []string   { return s.ledger.Owners() }
func (s *Service) Required() int      { return s.ledger.Required() }
func (s *Service) Balance() uint64    { return s.ledger.Balance() }
func (s *Service) EventCount() uint64 { return s.ledger.EventCount() }

func (s *Service) Transaction(id uint64) (vault.Transaction, error) {
	return s.ledger.Transaction(id)
}

func (s *Service) Subscription(id uint64) (vault.Subscription, error) {
	return s.ledger.Subscription(id)
}

func (s *Service) Confirmations(id uint64) ([]string, error) {
	return s.ledger.Confirmations(id)
}

func (s *Service) ConfirmationCount(id uint64) (int, error) {
	return s.ledger.ConfirmationCount(id)
}

func (s *Service) TransactionCount(pending, executed bool) int {
	return s.ledger.TransactionCount(pending, executed)
}

func (s *Service) TransactionIDs(from uint64, limit int, pending, executed bool) []uint64 {
	return s.ledger.TransactionIDs(from, limit, pending, executed)
}

func (s *Service) SubscriptionCount(withdrawable, expired bool) int {
	return s.ledger.SubscriptionCount(withdrawable, expired)
}

func (s *Service) SubscriptionIDs(from uint64, limit int, withdrawable, expired bool) []uint64 {
	return s.ledger.SubscriptionIDs(from, limit, withdrawable, expired)
}

func (s *Service) Events(offset uint64, limit int) []vault.Event {
	return s.ledger.Events(offset, limit)
}
