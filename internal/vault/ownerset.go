package vault

import (
	"encoding/json"
	"fmt"
)

// Owner and threshold changes are self-authorized: they are reachable only via
// a transaction destined to the vault's own account id, carrying an
// AdminCommand payload, and therefore go through the same propose-confirm-
// execute pipeline as any other transfer. No directly callable entry point
// exists.

const (
	AdminOpAddOwner          = "add_owner"
	AdminOpRemoveOwner       = "remove_owner"
	AdminOpReplaceOwner      = "replace_owner"
	AdminOpChangeRequirement = "change_requirement"
)

type AdminCommand struct {
	Op       string `json:"op"`
	Owner    string `json:"owner,omitempty"`
	NewOwner string `json:"new_owner,omitempty"`
	Required int    `json:"required,omitempty"`
}

// EncodeAdminCommand renders the payload for a vault-destined transaction.
func EncodeAdminCommand(cmd AdminCommand) ([]byte, error) {
	switch cmd.Op {
	case AdminOpAddOwner, AdminOpRemoveOwner, AdminOpReplaceOwner, AdminOpChangeRequirement:
	default:
		return nil, fmt.Errorf("%w: op %q", ErrBadAdminCommand, cmd.Op)
	}
	return json.Marshal(cmd)
}

func (l *Ledger) applyAdminLocked(tx *Transaction) error {
	var cmd AdminCommand
	if err := json.Unmarshal(tx.Payload, &cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrBadAdminCommand, err)
	}
	switch cmd.Op {
	case AdminOpAddOwner:
		return l.addOwnerLocked(cmd.Owner)
	case AdminOpRemoveOwner:
		return l.removeOwnerLocked(cmd.Owner)
	case AdminOpReplaceOwner:
		return l.replaceOwnerLocked(cmd.Owner, cmd.NewOwner)
	case AdminOpChangeRequirement:
		return l.changeRequirementLocked(cmd.Required)
	default:
		return fmt.Errorf("%w: op %q", ErrBadAdminCommand, cmd.Op)
	}
}

func (l *Ledger) addOwnerLocked(raw string) error {
	owner, err := NormalizeAccountID(raw)
	if err != nil {
		return err
	}
	if l.isOwner[owner] {
		return ErrOwnerExists
	}
	if !validRequirement(len(l.owners)+1, l.required) {
		return ErrInvalidRequirement
	}
	l.owners = append(l.owners, owner)
	l.isOwner[owner] = true
	l.appendEventLocked(Event{Kind: EventOwnerAdded, Account: owner})
	return nil
}

// removeOwnerLocked drops an owner and clamps the threshold down if removal
// would leave it above the new owner count.
func (l *Ledger) removeOwnerLocked(raw string) error {
	owner, err := NormalizeAccountID(raw)
	if err != nil {
		return err
	}
	if !l.isOwner[owner] {
		return ErrOwnerNotFound
	}
	if len(l.owners) == 1 {
		return ErrInvalidRequirement
	}
	for i, existing := range l.owners {
		if existing == owner {
			l.owners = append(l.owners[:i], l.owners[i+1:]...)
			break
		}
	}
	delete(l.isOwner, owner)
	l.appendEventLocked(Event{Kind: EventOwnerRemoved, Account: owner})
	if l.required > len(l.owners) {
		l.required = len(l.owners)
		l.appendEventLocked(Event{Kind: EventRequirementChanged, Value: uint64(l.required)})
	}
	return nil
}

func (l *Ledger) replaceOwnerLocked(oldRaw, newRaw string) error {
	oldOwner, err := NormalizeAccountID(oldRaw)
	if err != nil {
		return err
	}
	newOwner, err := NormalizeAccountID(newRaw)
	if err != nil {
		return err
	}
	if !l.isOwner[oldOwner] {
		return ErrOwnerNotFound
	}
	if l.isOwner[newOwner] {
		return ErrOwnerExists
	}
	for i, existing := range l.owners {
		if existing == oldOwner {
			l.owners[i] = newOwner
			break
		}
	}
	delete(l.isOwner, oldOwner)
	l.isOwner[newOwner] = true
	l.appendEventLocked(Event{Kind: EventOwnerRemoved, Account: oldOwner})
	l.appendEventLocked(Event{Kind: EventOwnerAdded, Account: newOwner})
	return nil
}

func (l *Ledger) changeRequirementLocked(required int) error {
	if !validRequirement(len(l.owners), required) {
		return ErrInvalidRequirement
	}
	l.required = required
	l.appendEventLocked(Event{Kind: EventRequirementChanged, Value: uint64(required)})
	return nil
}
