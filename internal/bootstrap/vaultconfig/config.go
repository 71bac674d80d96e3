// Package vaultconfig loads daemon configuration from YAML with environment
// overrides layered on top.
package vaultconfig

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RPCAddr      string
	DataDir      string
	SnapshotPath string
	// SnapshotSecret comes exclusively from COVAULT_SNAPSHOT_SECRET; it is
	// never read from the config file.
	SnapshotSecret string

	SelfID   string
	Owners   []string
	Required int

	CallBudget time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	RegistryURL string
	TokenURL    string
	TrackerURL  string
	// Principals maps settlement destination account ids to the JSON-RPC
	// endpoints the gateway calls for them.
	Principals map[string]string
}

type fileConfig struct {
	Vault         fileVaultConfig         `yaml:"vault"`
	RPC           fileRPCConfig           `yaml:"rpc"`
	Collaborators fileCollaboratorsConfig `yaml:"collaborators"`
}

type fileCollaboratorsConfig struct {
	RegistryURL string            `yaml:"registryUrl"`
	TokenURL    string            `yaml:"tokenUrl"`
	TrackerURL  string            `yaml:"trackerUrl"`
	Principals  map[string]string `yaml:"principals"`
}

type fileVaultConfig struct {
	SelfID       string        `yaml:"selfId"`
	Owners       []string      `yaml:"owners"`
	Required     int           `yaml:"required"`
	DataDir      string        `yaml:"dataDir"`
	SnapshotPath string        `yaml:"snapshotPath"`
	CallBudget   time.Duration `yaml:"callBudget"`
}

type fileRPCConfig struct {
	Addr           string  `yaml:"addr"`
	RateLimitRPS   float64 `yaml:"rateLimitRps"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
}

func Default() Config {
	return Config{
		RPCAddr:        "127.0.0.1:8799",
		DataDir:        "data",
		SnapshotPath:   "data/vault_state.enc",
		CallBudget:     5 * time.Second,
		RateLimitRPS:   30,
		RateLimitBurst: 60,
	}
}

// LoadFromPath reads the config file (or the default candidates when path is
// empty), merges it over the defaults, then applies env overrides.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/covault.yaml",
			"configs/covault.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src fileConfig) {
	if src.Vault.SelfID != "" {
		dst.SelfID = src.Vault.SelfID
	}
	if len(src.Vault.Owners) > 0 {
		dst.Owners = append([]string(nil), src.Vault.Owners...)
	}
	if src.Vault.Required != 0 {
		dst.Required = src.Vault.Required
	}
	if src.Vault.DataDir != "" {
		dst.DataDir = src.Vault.DataDir
	}
	if src.Vault.SnapshotPath != "" {
		dst.SnapshotPath = src.Vault.SnapshotPath
	}
	if src.Vault.CallBudget > 0 {
		dst.CallBudget = src.Vault.CallBudget
	}
	if src.RPC.Addr != "" {
		dst.RPCAddr = src.RPC.Addr
	}
	if src.RPC.RateLimitRPS > 0 {
		dst.RateLimitRPS = src.RPC.RateLimitRPS
	}
	if src.RPC.RateLimitBurst > 0 {
		dst.RateLimitBurst = src.RPC.RateLimitBurst
	}
	if src.Collaborators.RegistryURL != "" {
		dst.RegistryURL = src.Collaborators.RegistryURL
	}
	if src.Collaborators.TokenURL != "" {
		dst.TokenURL = src.Collaborators.TokenURL
	}
	if src.Collaborators.TrackerURL != "" {
		dst.TrackerURL = src.Collaborators.TrackerURL
	}
	if len(src.Collaborators.Principals) > 0 {
		dst.Principals = make(map[string]string, len(src.Collaborators.Principals))
		for account, endpoint := range src.Collaborators.Principals {
			dst.Principals[account] = endpoint
		}
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("COVAULT_RPC_ADDR")); v != "" {
		cfg.RPCAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_SNAPSHOT_PATH")); v != "" {
		cfg.SnapshotPath = v
	}
	cfg.SnapshotSecret = strings.TrimSpace(os.Getenv("COVAULT_SNAPSHOT_SECRET"))
	if v := strings.TrimSpace(os.Getenv("COVAULT_SELF_ID")); v != "" {
		cfg.SelfID = v
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_OWNERS")); v != "" {
		owners := strings.Split(v, ",")
		cfg.Owners = cfg.Owners[:0]
		for _, owner := range owners {
			if owner = strings.TrimSpace(owner); owner != "" {
				cfg.Owners = append(cfg.Owners, owner)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_REQUIRED")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Required = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_CALL_BUDGET")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CallBudget = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_RPC_RATE_LIMIT_RPS")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_RPC_RATE_LIMIT_BURST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_REGISTRY_URL")); v != "" {
		cfg.RegistryURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_TOKEN_URL")); v != "" {
		cfg.TokenURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COVAULT_TRACKER_URL")); v != "" {
		cfg.TrackerURL = v
	}
}
