package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"covault/go-backend/internal/adapters/metadatacodec"
	"covault/go-backend/internal/app"
	"covault/go-backend/internal/bootstrap/vaultconfig"
	"covault/go-backend/internal/gateway"
)

type testResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("COVAULT_ENV", "test")
	t.Setenv("COVAULT_RPC_TOKEN", "")
	t.Setenv("COVAULT_REQUIRE_RPC_TOKEN", "")

	gw := gateway.New(time.Second, nil)
	gw.Register("cov1merchant", func(context.Context, uint64, []byte) error { return nil })

	cfg := vaultconfig.Config{
		SelfID:     "cov1vault",
		Owners:     []string{"cov1alice", "cov1bob", "cov1carol"},
		Required:   2,
		CallBudget: time.Second,
	}
	svc, err := app.NewService(cfg, app.ServiceOptions{
		Gateway: gw,
		Decoder: metadatacodec.New(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewServerWithService("127.0.0.1:0", svc, Options{})
}

func callRPC(t *testing.T, s *Server, body string) testResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("http status: %d body=%s", rec.Code, rec.Body.String())
	}
	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
	return resp
}

func callMethod(t *testing.T, s *Server, method string, params any) testResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return callRPC(t, s, fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":%s}`, method, raw))
}

func mustResult(t *testing.T, resp testResponse, dst any) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("rpc error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if err := json.Unmarshal(resp.Result, dst); err != nil {
		t.Fatalf("decode result: %v raw=%s", err, resp.Result)
	}
}

func TestRPCTransactionFlow(t *testing.T) {
	s := newTestServer(t)

	var balance struct {
		Balance uint64 `json:"balance"`
	}
	mustResult(t, callMethod(t, s, "vault_deposit", map[string]any{"from": "cov1funder", "value": 100}), &balance)
	if balance.Balance != 100 {
		t.Fatalf("balance after deposit: %d", balance.Balance)
	}

	var submitted struct {
		TransactionID uint64 `json:"transaction_id"`
	}
	mustResult(t, callMethod(t, s, "vault_submitTransaction", map[string]any{
		"caller": "cov1alice", "destination": "cov1merchant", "value": 40,
	}), &submitted)

	var confirmed struct {
		Confirmed bool `json:"confirmed"`
	}
	mustResult(t, callMethod(t, s, "vault_isConfirmed", map[string]any{"transaction_id": submitted.TransactionID}), &confirmed)
	if confirmed.Confirmed {
		t.Fatal("confirmed below threshold")
	}

	var ok struct {
		OK bool `json:"ok"`
	}
	mustResult(t, callMethod(t, s, "vault_confirmTransaction", map[string]any{
		"caller": "cov1bob", "transaction_id": submitted.TransactionID,
	}), &ok)

	var tx struct {
		Executed bool   `json:"executed"`
		Value    uint64 `json:"value"`
	}
	mustResult(t, callMethod(t, s, "vault_getTransaction", map[string]any{"transaction_id": submitted.TransactionID}), &tx)
	if !tx.Executed || tx.Value != 40 {
		t.Fatalf("transaction after quorum: %+v", tx)
	}

	mustResult(t, callMethod(t, s, "vault_getBalance", nil), &balance)
	if balance.Balance != 60 {
		t.Fatalf("balance after execution: %d", balance.Balance)
	}

	var owners struct {
		Owners   []string `json:"owners"`
		Required int      `json:"required"`
	}
	mustResult(t, callMethod(t, s, "vault_getOwners", nil), &owners)
	if len(owners.Owners) != 3 || owners.Required != 2 {
		t.Fatalf("owner snapshot: %+v", owners)
	}

	var count struct {
		Count int `json:"count"`
	}
	mustResult(t, callMethod(t, s, "vault_getConfirmationCount", map[string]any{"transaction_id": submitted.TransactionID}), &count)
	if count.Count != 2 {
		t.Fatalf("confirmation count: %d", count.Count)
	}

	var events struct {
		Events []json.RawMessage `json:"events"`
		Total  uint64            `json:"total"`
	}
	mustResult(t, callMethod(t, s, "vault_getEvents", map[string]any{"offset": 0, "limit": 100}), &events)
	if events.Total == 0 || len(events.Events) == 0 {
		t.Fatalf("event log empty: %+v", events)
	}
}

func TestRPCSubscriptionFlow(t *testing.T) {
	s := newTestServer(t)

	mustResult(t, callMethod(t, s, "vault_deposit", map[string]any{"from": "cov1funder", "value": 500}), &struct{}{})

	expiry := time.Now().Add(365 * 24 * time.Hour).Unix()
	var submitted struct {
		SubscriptionID uint64 `json:"subscription_id"`
	}
	mustResult(t, callMethod(t, s, "vault_submitSubscription", map[string]any{
		"caller":         "cov1alice",
		"destination":    "cov1merchant",
		"recipient":      "cov1merchant",
		"value":          100,
		"period_seconds": 86400,
		"variant":        "direct-escrow",
		"meta":           []string{fmt.Sprintf("%d", expiry), "ext-55", ""},
	}), &submitted)

	var sub struct {
		Cycle      uint64 `json:"cycle"`
		ExternalID string `json:"external_id"`
	}
	mustResult(t, callMethod(t, s, "vault_getSubscription", map[string]any{"subscription_id": submitted.SubscriptionID}), &sub)
	if sub.Cycle != 1 || sub.ExternalID != "ext-55" {
		t.Fatalf("subscription after funded submit: %+v", sub)
	}

	// Second cycle is not due yet.
	resp := callMethod(t, s, "vault_executeSubscription", map[string]any{
		"caller": "cov1alice", "subscription_id": submitted.SubscriptionID,
	})
	if resp.Error == nil || resp.Error.Code != -32042 {
		t.Fatalf("early execution: %+v", resp.Error)
	}

	mustResult(t, callMethod(t, s, "vault_cancelSubscription", map[string]any{
		"caller": "cov1bob", "subscription_id": submitted.SubscriptionID,
	}), &struct{}{})

	var count struct {
		Count int `json:"count"`
	}
	mustResult(t, callMethod(t, s, "vault_getSubscriptionCount", map[string]any{"expired": true}), &count)
	if count.Count != 1 {
		t.Fatalf("expired count after cancel: %d", count.Count)
	}
}

func TestRPCErrorMapping(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		method string
		params any
		code   int
	}{
		{name: "non-owner", method: "vault_submitTransaction", params: map[string]any{"caller": "cov1stranger", "destination": "cov1merchant", "value": 1}, code: -32040},
		{name: "unknown transaction", method: "vault_confirmTransaction", params: map[string]any{"caller": "cov1alice", "transaction_id": 404}, code: -32041},
		{name: "unknown subscription", method: "vault_getSubscription", params: map[string]any{"subscription_id": 404}, code: -32041},
		{name: "bad variant", method: "vault_submitSubscription", params: map[string]any{"caller": "cov1alice", "destination": "cov1merchant", "recipient": "cov1merchant", "value": 1, "period_seconds": 60, "variant": "barter", "meta": []string{"1", "", ""}}, code: -32043},
		{name: "zero deposit", method: "vault_deposit", params: map[string]any{"from": "cov1funder", "value": 0}, code: -32043},
		{name: "unknown method", method: "vault_doMagic", params: nil, code: -32601},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := callMethod(t, s, tc.method, tc.params)
			if resp.Error == nil || resp.Error.Code != tc.code {
				t.Fatalf("got %+v want code %d", resp.Error, tc.code)
			}
		})
	}
}

func TestRPCEnvelopeValidation(t *testing.T) {
	s := newTestServer(t)

	if resp := callRPC(t, s, `{not json`); resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("parse error: %+v", resp.Error)
	}
	if resp := callRPC(t, s, `{"jsonrpc":"1.0","id":1,"method":"health_check"}`); resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("wrong version: %+v", resp.Error)
	}
	if resp := callRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":""}`); resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("missing method: %+v", resp.Error)
	}
	if resp := callRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check"}{"again":true}`); resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("trailing content: %+v", resp.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	rec := httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status: %d", rec.Code)
	}

	oversized := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"vault_deposit","params":{"from":%q,"value":1}}`,
		strings.Repeat("x", int(maxRPCBodyBytes)+1))
	req = httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(oversized)))
	rec = httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body status: %d", rec.Code)
	}
}

func TestRPCTokenAuth(t *testing.T) {
	t.Setenv("COVAULT_ENV", "")
	t.Setenv("COVAULT_REQUIRE_RPC_TOKEN", "true")
	t.Setenv("COVAULT_RPC_TOKEN", "shared-secret")

	gw := gateway.New(time.Second, nil)
	cfg := vaultconfig.Config{SelfID: "cov1vault", Owners: []string{"cov1alice"}, Required: 1}
	svc, err := app.NewService(cfg, app.ServiceOptions{Gateway: gw, Decoder: metadatacodec.New()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	s := NewServerWithService("127.0.0.1:0", svc, Options{})

	body := `{"jsonrpc":"2.0","id":1,"method":"health_check"}`

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("X-Covault-RPC-Token", "shared-secret")
	rec = httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("header token status: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer shared-secret")
	rec = httptest.NewRecorder()
	s.HandleRPC(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer token status: %d", rec.Code)
	}
}

func TestRPCTokenRequiredAtStartup(t *testing.T) {
	t.Setenv("COVAULT_ENV", "")
	t.Setenv("COVAULT_REQUIRE_RPC_TOKEN", "true")
	t.Setenv("COVAULT_RPC_TOKEN", "")

	s := NewServerWithService("127.0.0.1:0", nil, Options{})
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("startup without a required token succeeded")
	}
}

func TestRPCRateLimit(t *testing.T) {
	t.Setenv("COVAULT_ENV", "test")
	gw := gateway.New(time.Second, nil)
	cfg := vaultconfig.Config{SelfID: "cov1vault", Owners: []string{"cov1alice"}, Required: 1}
	svc, err := app.NewService(cfg, app.ServiceOptions{Gateway: gw, Decoder: metadatacodec.New()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tight := NewServerWithService("127.0.0.1:0", svc, Options{RateLimitRPS: 1, RateLimitBurst: 1})

	body := `{"jsonrpc":"2.0","id":1,"method":"health_check"}`
	first := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	tight.HandleRPC(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status: %d", rec.Code)
	}
	second := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec = httptest.NewRecorder()
	tight.HandleRPC(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status: %d", rec.Code)
	}
}
