// Package rpc hosts the vault's JSON-RPC 2.0 endpoint and the prometheus
// exposition handler.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"covault/go-backend/internal/app/contracts"
	"covault/go-backend/internal/platform/metrics"
	"covault/go-backend/internal/platform/ratelimiter"
)

const DefaultRPCAddr = "127.0.0.1:8799"

const (
	rpcTokenEnv        = "COVAULT_RPC_TOKEN"
	rpcRequireTokenEnv = "COVAULT_REQUIRE_RPC_TOKEN"
	envModeEnv         = "COVAULT_ENV"
)

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *metrics.Set
	Logger         *slog.Logger
}

type Server struct {
	httpServer *http.Server
	service    contracts.VaultAPI
	initErr    error
	rpcToken   string
	requireRPC bool
	limiter    *ratelimiter.KeyLimiter
	metrics    *metrics.Set
	log        *slog.Logger
}

func NewServerWithService(rpcAddr string, svc contracts.VaultAPI, opts Options) *Server {
	requireRPC := requiresRPCToken()
	rpcToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if requireRPC && rpcToken == "" {
		return &Server{initErr: errors.New("COVAULT_RPC_TOKEN is required unless COVAULT_REQUIRE_RPC_TOKEN=false or COVAULT_ENV is test/development/local")}
	}
	if rpcAddr == "" {
		rpcAddr = DefaultRPCAddr
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	promSet := opts.Metrics
	if promSet == nil {
		promSet = metrics.New()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              rpcAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		service:    svc,
		rpcToken:   rpcToken,
		requireRPC: requireRPC,
		limiter:    ratelimiter.New(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		metrics:    promSet,
		log:        logger,
	}
	if s.rpcToken == "" && !s.requireRPC {
		s.log.Warn("COVAULT_RPC_TOKEN is not set; RPC auth disabled")
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.Handle("/metrics", promSet.Handler())
	return s
}

func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) Addr() string {
	if s == nil || s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) HandleRPC(w http.ResponseWriter, r *http.Request) {
	s.handleRPC(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func requiresRPCToken() bool {
	if v := strings.TrimSpace(os.Getenv(rpcRequireTokenEnv)); v != "" {
		return !strings.EqualFold(v, "false") && v != "0"
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envModeEnv))) {
	case "test", "development", "local":
		return false
	default:
		return true
	}
}

func (s *Server) authorizeRPC(w http.ResponseWriter, r *http.Request) bool {
	if s.rpcToken == "" {
		return true
	}
	token := strings.TrimSpace(r.Header.Get("X-Covault-RPC-Token"))
	if token == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if token != s.rpcToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) allowRequest(r *http.Request) bool {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return s.limiter.Allow(host, time.Now())
}
