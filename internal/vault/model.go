package vault

import (
	"strings"
	"time"
)

// MaxOwnerCount bounds the owner set; the threshold invariant is
// 1 <= required <= len(owners) <= MaxOwnerCount.
const MaxOwnerCount = 50

type SettlementVariant string

const (
	VariantDirectEscrow       SettlementVariant = "direct-escrow"
	VariantEscrowToken        SettlementVariant = "escrow-token"
	VariantDelegatedAllowance SettlementVariant = "delegated-allowance"
)

func (v SettlementVariant) Valid() bool {
	switch v {
	case VariantDirectEscrow, VariantEscrowToken, VariantDelegatedAllowance:
		return true
	default:
		return false
	}
}

// MetadataArity is the number of required ordered metadata fields for the
// variant: expires, external id, first-window offset, and for the
// delegated-allowance variant a fourth settlement-wallet field.
func (v SettlementVariant) MetadataArity() int {
	if v == VariantDelegatedAllowance {
		return 4
	}
	return 3
}

func ParseSettlementVariant(raw string) (SettlementVariant, error) {
	v := SettlementVariant(strings.TrimSpace(raw))
	if !v.Valid() {
		return "", ErrUnsupportedVariant
	}
	return v, nil
}

// Transaction is a one-off transfer proposal. Executed flips true only at a
// successful execution and rolls back to false only when the outbound call
// fails.
type Transaction struct {
	ID          uint64    `json:"id"`
	Destination string    `json:"destination"`
	Value       uint64    `json:"value"`
	Payload     []byte    `json:"payload,omitempty"`
	Executed    bool      `json:"executed"`
	SubmittedAt time.Time `json:"submitted_at"`
	SubmittedBy string    `json:"submitted_by"`
}

// Subscription is a recurring withdrawal authorization. Cancellation sets
// ExpiresAt to the cancellation time; expiry is the sole termination signal.
type Subscription struct {
	ID               uint64            `json:"id"`
	Destination      string            `json:"destination"`
	Recipient        string            `json:"recipient"`
	SettlementWallet string            `json:"settlement_wallet,omitempty"`
	Value            uint64            `json:"value"`
	Variant          SettlementVariant `json:"variant"`
	CreatedAt        time.Time         `json:"created_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
	Cycle            uint64            `json:"cycle"`
	Period           time.Duration     `json:"period"`
	WithdrawPrev     time.Time         `json:"withdraw_prev"`
	WithdrawNext     time.Time         `json:"withdraw_next"`
	ExternalID       string            `json:"external_id,omitempty"`
	Payload          []byte            `json:"payload,omitempty"`
	Meta             []string          `json:"meta,omitempty"`
	Paused           bool              `json:"paused"`
}

// DecodedMeta is the typed form of a subscription's ordered metadata fields.
type DecodedMeta struct {
	ExpiresAt        time.Time
	ExternalID       string
	FirstWindowAfter time.Duration
	SettlementWallet string
}

func NormalizeAccountID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrInvalidAccountID
	}
	return id, nil
}
