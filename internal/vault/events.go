package vault

import "time"

type EventKind string

const (
	EventDeposit                EventKind = "deposit"
	EventSubmission             EventKind = "submission"
	EventConfirmation           EventKind = "confirmation"
	EventRevocation             EventKind = "revocation"
	EventExecution              EventKind = "execution"
	EventExecutionFailure       EventKind = "execution_failure"
	EventOwnerAdded             EventKind = "owner_added"
	EventOwnerRemoved           EventKind = "owner_removed"
	EventRequirementChanged     EventKind = "requirement_changed"
	EventSubscriptionAdded      EventKind = "subscription_added"
	EventSubscriptionCancelled  EventKind = "subscription_cancelled"
	EventSubscriptionExecuted   EventKind = "subscription_executed"
	EventSubscriptionExecFailed EventKind = "subscription_execution_failure"
)

// Event is one row of the append-only transition log. Seq is assigned from a
// counter that never rewinds; rows are never rewritten.
type Event struct {
	Seq     uint64    `json:"seq"`
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`
	TxID    uint64    `json:"tx_id,omitempty"`
	SubID   uint64    `json:"sub_id,omitempty"`
	Account string    `json:"account,omitempty"`
	Value   uint64    `json:"value,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

func (l *Ledger) appendEventLocked(ev Event) {
	ev.Seq = l.eventSeq
	l.eventSeq++
	if ev.At.IsZero() {
		ev.At = l.clock()
	}
	l.events = append(l.events, ev)
}
