package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"covault/go-backend/internal/adapters/metadatacodec"
	"covault/go-backend/internal/bootstrap/vaultconfig"
	"covault/go-backend/internal/gateway"
	"covault/go-backend/internal/vault"
)

func testConfig() vaultconfig.Config {
	return vaultconfig.Config{
		SelfID:     "cov1vault",
		Owners:     []string{"cov1alice", "cov1bob"},
		Required:   2,
		CallBudget: time.Second,
	}
}

func newTestService(t *testing.T, cfg vaultconfig.Config) (*Service, *gateway.Gateway) {
	t.Helper()
	gw := gateway.New(time.Second, nil)
	gw.Register("cov1merchant", func(context.Context, uint64, []byte) error { return nil })
	svc, err := NewService(cfg, ServiceOptions{
		Gateway: gw,
		Decoder: metadatacodec.New(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, gw
}

func TestNewServiceRequiresPorts(t *testing.T) {
	if _, err := NewService(testConfig(), ServiceOptions{Decoder: metadatacodec.New()}); err == nil {
		t.Fatal("missing gateway accepted")
	}
	if _, err := NewService(testConfig(), ServiceOptions{Gateway: gateway.New(time.Second, nil)}); err == nil {
		t.Fatal("missing decoder accepted")
	}
	if _, err := NewService(vaultconfig.Config{SelfID: "cov1vault", Owners: []string{"cov1alice"}, Required: 5}, ServiceOptions{
		Gateway: gateway.New(time.Second, nil),
		Decoder: metadatacodec.New(),
	}); !errors.Is(err, vault.ErrInvalidRequirement) {
		t.Fatalf("bad threshold: got %v", err)
	}
}

func TestServiceRecordsOperationMetrics(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	if err := svc.Deposit("cov1funder", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	id, err := svc.SubmitTransaction(ctx, "cov1alice", "cov1merchant", 40, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.ConfirmTransaction(ctx, "cov1bob", id); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// A rejected call lands in the ledger error counter.
	if err := svc.Deposit("cov1funder", 0); err == nil {
		t.Fatal("zero deposit accepted")
	}

	counters, ops, updatedAt := svc.RuntimeMetrics().Snapshot()
	if counters["ledger"] != 1 {
		t.Fatalf("ledger errors: %d", counters["ledger"])
	}
	if ops["deposit"].Count != 2 || ops["submit_transaction"].Count != 1 || ops["confirm_transaction"].Count != 1 {
		t.Fatalf("op counts: %+v", ops)
	}
	if updatedAt.IsZero() {
		t.Fatal("metrics timestamp never set")
	}

	if got := svc.Balance(); got != 60 {
		t.Fatalf("balance via service: %d", got)
	}
	if count := svc.TransactionCount(false, true); count != 1 {
		t.Fatalf("executed count via service: %d", count)
	}
}

func TestServicePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.SnapshotPath = filepath.Join(dir, "state.enc")
	cfg.SnapshotSecret = "test snapshot secret"

	svc, _ := newTestService(t, cfg)
	ctx := context.Background()
	if err := svc.Deposit("cov1funder", 250); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	id, err := svc.SubmitTransaction(ctx, "cov1alice", "cov1merchant", 100, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A second service over the same snapshot file resumes, config owner list
	// notwithstanding.
	cfg.Owners = []string{"cov1ignored"}
	cfg.Required = 1
	revived, _ := newTestService(t, cfg)

	if got := revived.Balance(); got != 250 {
		t.Fatalf("restored balance: %d", got)
	}
	owners := revived.Owners()
	if len(owners) != 2 || owners[0] != "cov1alice" {
		t.Fatalf("restored owners: %v", owners)
	}
	if revived.Required() != 2 {
		t.Fatalf("restored requirement: %d", revived.Required())
	}
	if err := revived.ConfirmTransaction(ctx, "cov1bob", id); err != nil {
		t.Fatalf("confirm on revived service: %v", err)
	}
	tx, err := revived.Transaction(id)
	if err != nil {
		t.Fatalf("read tx: %v", err)
	}
	if !tx.Executed || revived.Balance() != 150 {
		t.Fatalf("post-restart execution: executed=%v balance=%d", tx.Executed, revived.Balance())
	}
}
