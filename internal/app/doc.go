// Package app contains the vault service composition and application-level
// runtime state that are independent of transport protocols.
//
// Responsibilities:
// - Compose the ledger with its collaborator ports and persistence.
// - Define the transport-neutral service surface consumed by adapters.
// - Track operation metrics and error counters.
//
// Non-responsibilities:
// - JSON-RPC/HTTP protocol handling and endpoint-level mapping.
package app
