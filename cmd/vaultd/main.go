package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"covault/go-backend/internal/adapters/collaborators"
	"covault/go-backend/internal/adapters/metadatacodec"
	"covault/go-backend/internal/api"
	"covault/go-backend/internal/app/contracts"
	"covault/go-backend/internal/bootstrap/vaultconfig"
	"covault/go-backend/internal/gateway"
	"covault/go-backend/internal/platform/privacylog"
	"covault/go-backend/internal/vault"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address (overrides config)")
	configPath := flag.String("config", "", "Path to covault.yaml (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Covault-RPC-Token (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("covaultd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	slog.SetDefault(slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stderr, nil))))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *rpcToken != "" {
		_ = os.Setenv("COVAULT_RPC_TOKEN", *rpcToken)
	}

	cfg := vaultconfig.LoadFromPath(*configPath)
	if *rpcAddr != "" {
		cfg.RPCAddr = *rpcAddr
	}

	gw := gateway.New(cfg.CallBudget, nil)
	for account, endpoint := range cfg.Principals {
		gw.Register(account, collaborators.HTTPPrincipal(endpoint))
	}

	opts := contracts.ServiceOptions{
		Gateway: gw,
		Decoder: metadatacodec.New(),
	}
	if cfg.RegistryURL != "" {
		opts.Registry = collaborators.NewRegistry(cfg.RegistryURL)
	}
	if cfg.TokenURL != "" {
		opts.Token = collaborators.NewToken(cfg.TokenURL)
	}
	if cfg.TrackerURL != "" {
		opts.Tracker = collaborators.NewTracker(cfg.TrackerURL)
	}

	srv, err := api.NewServer(cfg, opts)
	if err != nil {
		log.Fatalf("covaultd failed to initialize: %v", err)
	}

	log.Printf("covaultd starting rpc_addr=%s owners=%d required=%d budget=%s",
		cfg.RPCAddr, len(cfg.Owners), cfg.Required, vaultBudget(cfg))
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("covaultd failed: %v", err)
	}
}

func vaultBudget(cfg vaultconfig.Config) string {
	if cfg.CallBudget <= 0 {
		return vault.DefaultCallBudget.String()
	}
	return cfg.CallBudget.String()
}
