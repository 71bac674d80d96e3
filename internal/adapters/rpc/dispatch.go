package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"covault/go-backend/internal/vault"
)

func (s *Server) dispatchRPC(r *http.Request, method string, rawParams json.RawMessage) (any, *rpcError) {
	if method == "health_check" {
		return map[string]string{"status": "ok"}, nil
	}
	ctx := r.Context()

	switch method {
	case "vault_deposit":
		var p struct {
			From  string `json:"from"`
			Value uint64 `json:"value"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		if err := s.service.Deposit(p.From, p.Value); err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]uint64{"balance": s.service.Balance()}, nil

	case "vault_submitTransaction":
		var p struct {
			Caller      string `json:"caller"`
			Destination string `json:"destination"`
			Value       uint64 `json:"value"`
			Payload     []byte `json:"payload,omitempty"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		id, err := s.service.SubmitTransaction(ctx, p.Caller, p.Destination, p.Value, p.Payload)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]uint64{"transaction_id": id}, nil

	case "vault_confirmTransaction":
		p, rpcErr := decodeTxCall(rawParams)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := s.service.ConfirmTransaction(ctx, p.Caller, p.TransactionID); err != nil {
			return nil, mapServiceError(err)
		}
		return okResult(), nil

	case "vault_revokeConfirmation":
		p, rpcErr := decodeTxCall(rawParams)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := s.service.RevokeConfirmation(p.Caller, p.TransactionID); err != nil {
			return nil, mapServiceError(err)
		}
		return okResult(), nil

	case "vault_executeTransaction":
		p, rpcErr := decodeTxCall(rawParams)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := s.service.ExecuteTransaction(ctx, p.Caller, p.TransactionID); err != nil {
			return nil, mapServiceError(err)
		}
		return okResult(), nil

	case "vault_isConfirmed":
		var p struct {
			TransactionID uint64 `json:"transaction_id"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		confirmed, err := s.service.IsConfirmed(p.TransactionID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]bool{"confirmed": confirmed}, nil

	case "vault_submitSubscription":
		var p struct {
			Caller        string   `json:"caller"`
			Destination   string   `json:"destination"`
			Recipient     string   `json:"recipient"`
			Value         uint64   `json:"value"`
			AttachedValue uint64   `json:"attached_value"`
			PeriodSeconds int64    `json:"period_seconds"`
			Variant       string   `json:"variant"`
			Payload       []byte   `json:"payload,omitempty"`
			Meta          []string `json:"meta"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		variant, err := vault.ParseSettlementVariant(p.Variant)
		if err != nil {
			return nil, mapServiceError(err)
		}
		id, err := s.service.SubmitSubscription(ctx, p.Caller, p.Destination, p.Recipient,
			p.Value, p.AttachedValue, time.Duration(p.PeriodSeconds)*time.Second, variant, p.Payload, p.Meta)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]uint64{"subscription_id": id}, nil

	case "vault_cancelSubscription":
		p, rpcErr := decodeSubCall(rawParams)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := s.service.CancelSubscription(p.Caller, p.SubscriptionID); err != nil {
			return nil, mapServiceError(err)
		}
		return okResult(), nil

	case "vault_executeSubscription":
		p, rpcErr := decodeSubCall(rawParams)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := s.service.ExecuteSubscription(ctx, p.Caller, p.SubscriptionID); err != nil {
			return nil, mapServiceError(err)
		}
		return okResult(), nil

	case "vault_getOwners":
		return map[string]any{
			"owners":   s.service.Owners(),
			"required": s.service.Required(),
		}, nil

	case "vault_getBalance":
		return map[string]uint64{"balance": s.service.Balance()}, nil

	case "vault_getConfirmations":
		var p struct {
			TransactionID uint64 `json:"transaction_id"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		confirmers, err := s.service.Confirmations(p.TransactionID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"confirmations": confirmers, "count": len(confirmers)}, nil

	case "vault_getConfirmationCount":
		var p struct {
			TransactionID uint64 `json:"transaction_id"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		count, err := s.service.ConfirmationCount(p.TransactionID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]int{"count": count}, nil

	case "vault_getTransaction":
		var p struct {
			TransactionID uint64 `json:"transaction_id"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		tx, err := s.service.Transaction(p.TransactionID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return tx, nil

	case "vault_getTransactionCount":
		var p struct {
			Pending  bool `json:"pending"`
			Executed bool `json:"executed"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return map[string]int{"count": s.service.TransactionCount(p.Pending, p.Executed)}, nil

	case "vault_getTransactionIds":
		var p struct {
			From     uint64 `json:"from"`
			Limit    int    `json:"limit"`
			Pending  bool   `json:"pending"`
			Executed bool   `json:"executed"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return map[string][]uint64{"ids": s.service.TransactionIDs(p.From, p.Limit, p.Pending, p.Executed)}, nil

	case "vault_getSubscription":
		var p struct {
			SubscriptionID uint64 `json:"subscription_id"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		sub, err := s.service.Subscription(p.SubscriptionID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return sub, nil

	case "vault_getSubscriptionCount":
		var p struct {
			Withdrawable bool `json:"withdrawable"`
			Expired      bool `json:"expired"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return map[string]int{"count": s.service.SubscriptionCount(p.Withdrawable, p.Expired)}, nil

	case "vault_getSubscriptionIds":
		var p struct {
			From         uint64 `json:"from"`
			Limit        int    `json:"limit"`
			Withdrawable bool   `json:"withdrawable"`
			Expired      bool   `json:"expired"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return map[string][]uint64{"ids": s.service.SubscriptionIDs(p.From, p.Limit, p.Withdrawable, p.Expired)}, nil

	case "vault_getEvents":
		var p struct {
			Offset uint64 `json:"offset"`
			Limit  int    `json:"limit"`
		}
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return map[string]any{
			"events": s.service.Events(p.Offset, p.Limit),
			"total":  s.service.EventCount(),
		}, nil

	default:
		return nil, rpcMethodNotFound()
	}
}

type txCallParams struct {
	Caller        string `json:"caller"`
	TransactionID uint64 `json:"transaction_id"`
}

type subCallParams struct {
	Caller         string `json:"caller"`
	SubscriptionID uint64 `json:"subscription_id"`
}

func decodeTxCall(raw json.RawMessage) (txCallParams, *rpcError) {
	var p txCallParams
	if err := decodeParams(raw, &p); err != nil {
		return p, rpcInvalidParams()
	}
	return p, nil
}

func decodeSubCall(raw json.RawMessage) (subCallParams, *rpcError) {
	var p subCallParams
	if err := decodeParams(raw, &p); err != nil {
		return p, rpcInvalidParams()
	}
	return p, nil
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func okResult() map[string]bool {
	return map[string]bool{"ok": true}
}
