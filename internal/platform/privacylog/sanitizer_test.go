package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSanitizingHandlerFingerprintsAccountIDs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("test", "caller", "cov1OwnerA", "rpc_token", "secret", "tx_id", 3)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if _, ok := payload["caller"]; ok {
		t.Fatal("caller should not be present in plaintext")
	}
	fp, ok := payload["caller_fp"].(string)
	if !ok || !strings.HasPrefix(fp, "fp_") {
		t.Fatalf("expected caller_fp fingerprint, got %v", payload["caller_fp"])
	}
	if got, _ := payload["rpc_token"].(string); got != redactedValue {
		t.Fatalf("expected redacted token, got %q", got)
	}
	if got, _ := payload["tx_id"].(float64); got != 3 {
		t.Fatalf("expected tx_id untouched, got %v", payload["tx_id"])
	}
}

func TestFingerprintIDStableWithinBoot(t *testing.T) {
	a := FingerprintID("cov1OwnerA")
	b := FingerprintID("cov1OwnerA")
	if a == "" || a != b {
		t.Fatalf("fingerprints should be stable within a boot: %q vs %q", a, b)
	}
	if FingerprintID("cov1OwnerB") == a {
		t.Fatal("different accounts should not collide")
	}
	if FingerprintID("  ") != "" {
		t.Fatal("blank values should map to empty fingerprint")
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, nil))
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected handler enabled for info")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelInfo, "msg", 0)
	rec.AddAttrs(slog.String("account", "cov1X"), slog.String("status", "ok"))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	withAttrs := h.WithAttrs([]slog.Attr{slog.String("destination", "cov1Y")})
	if withAttrs == nil {
		t.Fatal("WithAttrs should return a handler")
	}
	if h.WithGroup("grp") == nil {
		t.Fatal("WithGroup should return a handler")
	}
}
