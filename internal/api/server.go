// Package api composes the vault service behind the JSON-RPC transport.
package api

import (
	"context"
	"net/http"

	"covault/go-backend/internal/adapters/rpc"
	"covault/go-backend/internal/app"
	"covault/go-backend/internal/app/contracts"
	"covault/go-backend/internal/bootstrap/vaultconfig"
)

type Server struct {
	service   contracts.VaultAPI
	transport *rpc.Server
}

// NewServerWithService wires an already composed service to the transport.
func NewServerWithService(cfg vaultconfig.Config, svc contracts.VaultAPI) *Server {
	opts := rpc.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if appSvc, ok := svc.(*app.Service); ok {
		opts.Metrics = appSvc.Metrics()
	}
	return &Server{
		service:   svc,
		transport: rpc.NewServerWithService(cfg.RPCAddr, svc, opts),
	}
}

// NewServer builds the service from config and options, then wires it.
func NewServer(cfg vaultconfig.Config, opts contracts.ServiceOptions) (*Server, error) {
	svc, err := app.NewService(cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithService(cfg, svc), nil
}

func (s *Server) Run(ctx context.Context) error {
	return s.transport.Run(ctx)
}

func (s *Server) Addr() string {
	return s.transport.Addr()
}

func (s *Server) HandleRPC(w http.ResponseWriter, r *http.Request) {
	s.transport.HandleRPC(w, r)
}
