// Package vault implements the multi-party authorization ledger: threshold-
// confirmed one-off transactions, operator-triggered recurring subscriptions,
// the owner set, the escrow balance, and the append-only event log.
//
// Every state-mutating invocation is serialized by one mutex. The only point
// where the lock is released mid-operation is the outbound call boundary: the
// affected row is marked in flight under the lock, the call runs unlocked (the
// callee may re-enter), then the lock is re-acquired to finalize or roll back.
package vault

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

type Clock func() time.Time

type Config struct {
	// SelfID is the vault's own account identifier. Transactions destined to
	// it carry owner-management commands instead of outbound transfers.
	SelfID   string
	Owners   []string
	Required int

	Gateway  Gateway
	Registry OperatorRegistry
	Token    TokenService
	Notifier Notifier
	Decoder  MetadataDecoder

	// CallBudget bounds each outbound call; zero selects DefaultCallBudget.
	CallBudget time.Duration
	Clock      Clock
	Logger     *slog.Logger

	// Persist, when set, receives a full state snapshot after every completed
	// mutation. Persistence failures are logged and do not fail the mutation.
	Persist func(Snapshot) error

	// Restore seeds the ledger from a previously persisted snapshot. When set,
	// Owners/Required from the config are ignored in favor of the snapshot.
	Restore *Snapshot
}

const DefaultCallBudget = 5 * time.Second

type Ledger struct {
	mu sync.Mutex

	selfID   string
	owners   []string
	isOwner  map[string]bool
	required int

	balance uint64

	txCount       uint64
	transactions  map[uint64]*Transaction
	confirmations map[uint64]map[string]bool

	subCount      uint64
	subscriptions map[uint64]*Subscription
	subInFlight   map[uint64]bool

	eventSeq uint64
	events   []Event

	gateway    Gateway
	registry   OperatorRegistry
	token      TokenService
	notifier   Notifier
	decoder    MetadataDecoder
	callBudget time.Duration
	clock      Clock
	log        *slog.Logger
	persist    func(Snapshot) error
}

func NewLedger(cfg Config) (*Ledger, error) {
	selfID, err := NormalizeAccountID(cfg.SelfID)
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	budget := cfg.CallBudget
	if budget <= 0 {
		budget = DefaultCallBudget
	}

	l := &Ledger{
		selfID:        selfID,
		isOwner:       map[string]bool{},
		transactions:  map[uint64]*Transaction{},
		confirmations: map[uint64]map[string]bool{},
		subscriptions: map[uint64]*Subscription{},
		subInFlight:   map[uint64]bool{},
		gateway:       cfg.Gateway,
		registry:      cfg.Registry,
		token:         cfg.Token,
		notifier:      cfg.Notifier,
		decoder:       cfg.Decoder,
		callBudget:    budget,
		clock:         clock,
		log:           logger,
		persist:       cfg.Persist,
	}

	if cfg.Restore != nil {
		if err := l.restore(*cfg.Restore); err != nil {
			return nil, err
		}
		return l, nil
	}

	owners := make([]string, 0, len(cfg.Owners))
	seen := map[string]bool{}
	for _, raw := range cfg.Owners {
		owner, err := NormalizeAccountID(raw)
		if err != nil {
			return nil, err
		}
		if seen[owner] {
			return nil, ErrOwnerExists
		}
		seen[owner] = true
		owners = append(owners, owner)
	}
	if !validRequirement(len(owners), cfg.Required) {
		return nil, ErrInvalidRequirement
	}
	l.owners = owners
	l.isOwner = seen
	l.required = cfg.Required
	return l, nil
}

func validRequirement(ownerCount, required int) bool {
	return ownerCount >= 1 && ownerCount <= MaxOwnerCount && required >= 1 && required <= ownerCount
}

// Deposit credits incoming value to the vault's escrow balance.
func (l *Ledger) Deposit(from string, value uint64) error {
	from, err := NormalizeAccountID(from)
	if err != nil {
		return err
	}
	if value == 0 {
		return ErrInvalidValue
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += value
	l.appendEventLocked(Event{Kind: EventDeposit, Account: from, Value: value})
	l.persistLocked()
	return nil
}

func (l *Ledger) persistLocked() {
	if l.persist == nil {
		return
	}
	if err := l.persist(l.snapshotLocked()); err != nil {
		l.log.Error("vault snapshot persist failed", "error", err)
	}
}

// Snapshot is the versioned persisted form of the ledger state.
type Snapshot struct {
	Version       int                 `json:"version"`
	SelfID        string              `json:"self_id"`
	Owners        []string            `json:"owners"`
	Required      int                 `json:"required"`
	Balance       uint64              `json:"balance"`
	TxCount       uint64              `json:"tx_count"`
	SubCount      uint64              `json:"sub_count"`
	EventSeq      uint64              `json:"event_seq"`
	Transactions  []Transaction       `json:"transactions"`
	Confirmations map[uint64][]string `json:"confirmations"`
	Subscriptions []Subscription      `json:"subscriptions"`
	Events        []Event             `json:"events"`
}

const snapshotVersion = 1

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:       snapshotVersion,
		SelfID:        l.selfID,
		Owners:        append([]string(nil), l.owners...),
		Required:      l.required,
		Balance:       l.balance,
		TxCount:       l.txCount,
		SubCount:      l.subCount,
		EventSeq:      l.eventSeq,
		Confirmations: map[uint64][]string{},
		Events:        append([]Event(nil), l.events...),
	}
	for _, tx := range l.transactions {
		snap.Transactions = append(snap.Transactions, *tx)
	}
	sort.Slice(snap.Transactions, func(i, j int) bool { return snap.Transactions[i].ID < snap.Transactions[j].ID })
	for id, byOwner := range l.confirmations {
		confirmers := make([]string, 0, len(byOwner))
		for owner, ok := range byOwner {
			if ok {
				confirmers = append(confirmers, owner)
			}
		}
		sort.Strings(confirmers)
		snap.Confirmations[id] = confirmers
	}
	for _, sub := range l.subscriptions {
		snap.Subscriptions = append(snap.Subscriptions, *sub)
	}
	sort.Slice(snap.Subscriptions, func(i, j int) bool { return snap.Subscriptions[i].ID < snap.Subscriptions[j].ID })
	return snap
}

// Snapshot returns a copy of the current state in persisted form.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) restore(snap Snapshot) error {
	if snap.Version != snapshotVersion {
		return ErrBadSnapshot
	}
	if !validRequirement(len(snap.Owners), snap.Required) {
		return ErrInvalidRequirement
	}
	isOwner := map[string]bool{}
	owners := make([]string, 0, len(snap.Owners))
	for _, raw := range snap.Owners {
		owner, err := NormalizeAccountID(raw)
		if err != nil {
			return err
		}
		if isOwner[owner] {
			return ErrOwnerExists
		}
		isOwner[owner] = true
		owners = append(owners, owner)
	}
	l.owners = owners
	l.isOwner = isOwner
	l.required = snap.Required
	l.balance = snap.Balance
	l.txCount = snap.TxCount
	l.subCount = snap.SubCount
	l.eventSeq = snap.EventSeq
	l.events = append([]Event(nil), snap.Events...)
	for i := range snap.Transactions {
		tx := snap.Transactions[i]
		l.transactions[tx.ID] = &tx
	}
	for id, confirmers := range snap.Confirmations {
		byOwner := map[string]bool{}
		for _, owner := range confirmers {
			byOwner[owner] = true
		}
		l.confirmations[id] = byOwner
	}
	for i := range snap.Subscriptions {
		sub := snap.Subscriptions[i]
		l.subscriptions[sub.ID] = &sub
	}
	return nil
}
