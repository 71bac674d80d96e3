// Package identity derives vault and owner account identifiers from BIP-39
// mnemonics. An account id is the base58-encoded blake2b-256 digest of the
// ed25519 signing public key, prefixed with "cov1".
package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

const (
	accountIDPrefix = "cov1"
	hkdfInfoSigning = "covault/account/signing/v1"
)

var ErrInvalidMnemonic = errors.New("mnemonic phrase is invalid")

type Keys struct {
	SigningPrivateKey ed25519.PrivateKey
	SigningPublicKey  ed25519.PublicKey
}

// NewMnemonic generates a fresh 24-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives the account signing keys from a mnemonic phrase.
func FromMnemonic(mnemonic, passphrase string) (*Keys, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	signingSeed, err := hkdfExpand(seed, hkdfInfoSigning, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(signingSeed)
	return &Keys{
		SigningPrivateKey: priv,
		SigningPublicKey:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// AccountID renders the canonical account identifier for a signing key.
func AccountID(signingPublicKey ed25519.PublicKey) (string, error) {
	if len(signingPublicKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid signing public key size: %d", len(signingPublicKey))
	}
	h := blake2b.Sum256(signingPublicKey)
	return accountIDPrefix + base58.Encode(h[:]), nil
}

// VerifyAccountID reports whether the id matches the signing key.
func VerifyAccountID(accountID string, signingPublicKey ed25519.PublicKey) (bool, error) {
	expected, err := AccountID(signingPublicKey)
	if err != nil {
		return false, err
	}
	return accountID == expected, nil
}

// IsCanonicalAccountID reports whether the id is in canonical derived form.
// The ledger accepts foreign identifier schemes; this check is for tooling.
func IsCanonicalAccountID(accountID string) bool {
	if !strings.HasPrefix(accountID, accountIDPrefix) {
		return false
	}
	raw, err := base58.Decode(strings.TrimPrefix(accountID, accountIDPrefix))
	if err != nil {
		return false
	}
	return len(raw) == blake2b.Size256
}

func hkdfExpand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
