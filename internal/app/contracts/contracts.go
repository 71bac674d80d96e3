// Package contracts exposes the transport-neutral service surface and the
// collaborator ports under one import path for adapters and composition code.
package contracts

import (
	"covault/go-backend/internal/app"
	"covault/go-backend/internal/vault"
)

type VaultAPI = app.VaultAPI
type ServiceOptions = app.ServiceOptions

type CallGateway = vault.Gateway
type OperatorRegistry = vault.OperatorRegistry
type TokenService = vault.TokenService
type PaymentTracker = vault.PaymentTracker
type MetadataDecoder = vault.MetadataDecoder
