package metadatacodec

import (
	"errors"
	"testing"
	"time"

	"covault/go-backend/internal/vault"
)

func TestDecodeSubscriptionMeta(t *testing.T) {
	codec := New()

	t.Run("direct escrow", func(t *testing.T) {
		meta, err := codec.DecodeSubscriptionMeta(vault.VariantDirectEscrow, []string{"1767225600", "ext-900", "72h"})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if want := time.Unix(1767225600, 0).UTC(); !meta.ExpiresAt.Equal(want) {
			t.Fatalf("expiry: got=%v want=%v", meta.ExpiresAt, want)
		}
		if meta.ExternalID != "ext-900" {
			t.Fatalf("external id: %q", meta.ExternalID)
		}
		if meta.FirstWindowAfter != 72*time.Hour {
			t.Fatalf("first window: %v", meta.FirstWindowAfter)
		}
		if meta.SettlementWallet != "" {
			t.Fatalf("unexpected settlement wallet: %q", meta.SettlementWallet)
		}
	})

	t.Run("empty offset means immediate", func(t *testing.T) {
		meta, err := codec.DecodeSubscriptionMeta(vault.VariantDirectEscrow, []string{"1767225600", "", ""})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if meta.FirstWindowAfter != 0 {
			t.Fatalf("first window: %v", meta.FirstWindowAfter)
		}
	})

	t.Run("delegated allowance wallet", func(t *testing.T) {
		meta, err := codec.DecodeSubscriptionMeta(vault.VariantDelegatedAllowance, []string{"1767225600", "ext-1", "", " cov1wallet "})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if meta.SettlementWallet != "cov1wallet" {
			t.Fatalf("settlement wallet: %q", meta.SettlementWallet)
		}
	})
}

func TestDecodeSubscriptionMetaRejections(t *testing.T) {
	codec := New()
	cases := []struct {
		name    string
		variant vault.SettlementVariant
		fields  []string
	}{
		{name: "too few fields", variant: vault.VariantDirectEscrow, fields: []string{"1767225600", "ext"}},
		{name: "non-numeric expiry", variant: vault.VariantDirectEscrow, fields: []string{"tomorrow", "ext", ""}},
		{name: "zero expiry", variant: vault.VariantDirectEscrow, fields: []string{"0", "ext", ""}},
		{name: "negative expiry", variant: vault.VariantDirectEscrow, fields: []string{"-5", "ext", ""}},
		{name: "bad offset", variant: vault.VariantDirectEscrow, fields: []string{"1767225600", "ext", "next tuesday"}},
		{name: "negative offset", variant: vault.VariantDirectEscrow, fields: []string{"1767225600", "ext", "-1h"}},
		{name: "delegated missing wallet arity", variant: vault.VariantDelegatedAllowance, fields: []string{"1767225600", "ext", ""}},
		{name: "delegated blank wallet", variant: vault.VariantDelegatedAllowance, fields: []string{"1767225600", "ext", "", "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.DecodeSubscriptionMeta(tc.variant, tc.fields); !errors.Is(err, vault.ErrBadMetadata) {
				t.Fatalf("got %v want ErrBadMetadata", err)
			}
		})
	}
}
