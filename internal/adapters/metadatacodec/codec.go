// Package metadatacodec decodes the ordered raw metadata fields attached to a
// subscription submission. Field positions: 0 expiry (unix seconds), 1
// external correlation id, 2 first-window offset (Go duration string, empty
// means immediately withdrawable), 3 settlement wallet (delegated-allowance
// variant only).
package metadatacodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"covault/go-backend/internal/vault"
)

type Codec struct{}

func New() Codec { return Codec{} }

func (Codec) DecodeSubscriptionMeta(variant vault.SettlementVariant, fields []string) (vault.DecodedMeta, error) {
	if len(fields) < variant.MetadataArity() {
		return vault.DecodedMeta{}, fmt.Errorf("%w: variant %s requires %d fields", vault.ErrBadMetadata, variant, variant.MetadataArity())
	}

	expiresUnix, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil || expiresUnix <= 0 {
		return vault.DecodedMeta{}, fmt.Errorf("%w: expiry field %q", vault.ErrBadMetadata, fields[0])
	}

	meta := vault.DecodedMeta{
		ExpiresAt:  time.Unix(expiresUnix, 0).UTC(),
		ExternalID: strings.TrimSpace(fields[1]),
	}

	if offset := strings.TrimSpace(fields[2]); offset != "" {
		d, err := time.ParseDuration(offset)
		if err != nil || d < 0 {
			return vault.DecodedMeta{}, fmt.Errorf("%w: first-window offset %q", vault.ErrBadMetadata, fields[2])
		}
		meta.FirstWindowAfter = d
	}

	if variant == vault.VariantDelegatedAllowance {
		wallet := strings.TrimSpace(fields[3])
		if wallet == "" {
			return vault.DecodedMeta{}, fmt.Errorf("%w: settlement wallet field is empty", vault.ErrBadMetadata)
		}
		meta.SettlementWallet = wallet
	}
	return meta, nil
}
