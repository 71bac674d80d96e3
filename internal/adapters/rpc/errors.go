package rpc

import "covault/go-backend/internal/vault"

// JSON-RPC codes for the ledger error taxonomy.
const (
	codeAuthorization = -32040
	codeNotFound      = -32041
	codeStateConflict = -32042
	codeValidation    = -32043
	codeExternalCall  = -32044
	codeInternal      = -32050
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

func rpcMethodNotFound() *rpcError {
	return &rpcError{Code: -32601, Message: "method not found"}
}

func mapServiceError(err error) *rpcError {
	if err == nil {
		return nil
	}
	code := codeInternal
	switch vault.Kind(err) {
	case vault.KindAuthorization:
		code = codeAuthorization
	case vault.KindNotFound:
		code = codeNotFound
	case vault.KindStateConflict:
		code = codeStateConflict
	case vault.KindValidation:
		code = codeValidation
	case vault.KindExternalCall:
		code = codeExternalCall
	}
	return &rpcError{Code: code, Message: err.Error()}
}
