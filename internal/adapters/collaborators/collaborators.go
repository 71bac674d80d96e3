// Package collaborators adapts the vault's external collaborator ports onto
// JSON-RPC 2.0 endpoints: the operator registry, the token-transfer service,
// the payment tracker, and settlement principals reachable by the gateway.
package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"covault/go-backend/internal/gateway"
)

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type clientRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type clientResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(clientRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collaborator endpoint returned status %d", resp.StatusCode)
	}
	var parsed clientResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if parsed.Error != nil {
		return fmt.Errorf("collaborator rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if result != nil && len(parsed.Result) > 0 {
		return json.Unmarshal(parsed.Result, result)
	}
	return nil
}

// Registry implements vault.OperatorRegistry over a remote endpoint.
type Registry struct {
	client *Client
}

func NewRegistry(endpoint string) *Registry {
	return &Registry{client: NewClient(endpoint, 0)}
}

func (r *Registry) IsOperator(account string) bool {
	var result struct {
		Operator bool `json:"operator"`
	}
	err := r.client.call(context.Background(), "registry_isOperator",
		map[string]string{"account": account}, &result)
	return err == nil && result.Operator
}

func (r *Registry) HandleNewSubscription(destination, vaultID string, subscriptionID uint64, externalID string) error {
	return r.client.call(context.Background(), "registry_handleNewSubscription", map[string]any{
		"destination":     destination,
		"vault_id":        vaultID,
		"subscription_id": subscriptionID,
		"external_id":     externalID,
	}, nil)
}

// Token implements vault.TokenService over a remote endpoint.
type Token struct {
	client *Client
}

func NewToken(endpoint string) *Token {
	return &Token{client: NewClient(endpoint, 0)}
}

func (t *Token) TransferOnBehalf(from, to string, value uint64) bool {
	var result struct {
		Transferred bool `json:"transferred"`
	}
	err := t.client.call(context.Background(), "token_transferOnBehalf", map[string]any{
		"from":  from,
		"to":    to,
		"value": value,
	}, &result)
	return err == nil && result.Transferred
}

// Tracker implements vault.PaymentTracker over a remote endpoint.
type Tracker struct {
	client *Client
}

func NewTracker(endpoint string) *Tracker {
	return &Tracker{client: NewClient(endpoint, 0)}
}

func (t *Tracker) HandlePaymentNotification(destination string, subscriptionID uint64, externalID string, firstCycle bool) error {
	return t.client.call(context.Background(), "tracker_handlePaymentNotification", map[string]any{
		"destination":     destination,
		"subscription_id": subscriptionID,
		"external_id":     externalID,
		"first_cycle":     firstCycle,
	}, nil)
}

// HTTPPrincipal adapts a remote settlement endpoint into a gateway handler.
func HTTPPrincipal(endpoint string) gateway.PrincipalFunc {
	client := NewClient(endpoint, 0)
	return func(ctx context.Context, value uint64, payload []byte) error {
		var result struct {
			Accepted bool `json:"accepted"`
		}
		if err := client.call(ctx, "principal_receive", map[string]any{
			"value":   value,
			"payload": payload,
		}, &result); err != nil {
			return err
		}
		if !result.Accepted {
			return fmt.Errorf("principal rejected the transfer")
		}
		return nil
	}
}
