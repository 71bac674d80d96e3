package securestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	const passphrase = "orange whip"
	plaintext := []byte(`{"balance":42}`)

	sealed, err := Encrypt(passphrase, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatal("ciphertext leaks plaintext")
	}
	if !bytes.HasPrefix(sealed, []byte(filePrefix)) {
		t.Fatalf("missing envelope prefix: %q", sealed[:16])
	}

	opened, err := Decrypt(passphrase, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: %q", opened)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt("right", []byte("secret state"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt("wrong", sealed); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("wrong passphrase: got %v want ErrAuthFailed", err)
	}
}

func TestDecryptRejectsMalformedEnvelopes(t *testing.T) {
	sealed, err := Encrypt("pass", []byte("x"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(sealed[len(filePrefix):], &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	env.Version = 99
	raw, _ := json.Marshal(env)

	cases := []struct {
		name string
		data []byte
	}{
		{name: "no prefix", data: []byte("just some file")},
		{name: "garbled body", data: append([]byte(filePrefix), "{{{"...)},
		{name: "wrong version", data: append([]byte(filePrefix), raw...)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decrypt("pass", tc.data); !errors.Is(err, ErrInvalid) {
				t.Fatalf("got %v want ErrInvalid", err)
			}
		})
	}
}

func TestEncryptRandomizesEnvelope(t *testing.T) {
	a, err := Encrypt("pass", []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt("pass", []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two encryptions produced identical envelopes")
	}
}

func TestWriteAndReadEncryptedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.enc")
	const secret = "hunter2 but longer"
	payload := map[string]any{"version": 1, "owners": []string{"cov1alice"}}

	if err := WriteEncryptedJSON(path, secret, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	plaintext, err := ReadDecryptedFile(path, secret)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(plaintext, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["version"] != float64(1) {
		t.Fatalf("decoded payload: %v", decoded)
	}
}

func TestStorageConfigHelpers(t *testing.T) {
	path, secret := NormalizeStorageConfig("  /tmp/state.enc ", " s3cret ")
	if path != "/tmp/state.enc" || secret != "s3cret" {
		t.Fatalf("normalize: path=%q secret=%q", path, secret)
	}
	if !IsStorageConfigured("/tmp/state.enc", "s3cret") {
		t.Fatal("configured pair reported unconfigured")
	}
	if IsStorageConfigured("", "s3cret") || IsStorageConfigured("/tmp/state.enc", "  ") {
		t.Fatal("partial config reported configured")
	}
}
