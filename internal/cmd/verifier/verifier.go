// Package verifier parses verifier service flags and launches the service.
package verifier

import (
	"context"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/verifier.space/internal/platform/cmd"
	"github.com/louisbranch/verifier.space/internal/platform/config"
	"github.com/louisbranch/verifier.space/internal/platform/logging"
	"github.com/louisbranch/verifier.space/internal/platform/timeouts"
	server "github.com/louisbranch/verifier.space/internal/services/verifier/app"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
	mcpservice "github.com/louisbranch/verifier.space/internal/services/verifier/mcp/service"
)

// Config holds verifier command configuration.
type Config struct {
	HTTPAddr   string `env:"VERIFIER_SPACE_HTTP_ADDR" envDefault:"localhost:8090"`
	HealthPort int    `env:"VERIFIER_SPACE_HEALTH_PORT" envDefault:"8091"`
	DBPath     string `env:"VERIFIER_SPACE_DB_PATH" envDefault:"data/verifier.db"`

	Owner          string `env:"VERIFIER_SPACE_OWNER"`
	EscrowAccounts string `env:"VERIFIER_SPACE_ESCROW_ACCOUNTS"`
	CustodyAccount string `env:"VERIFIER_SPACE_CUSTODY_ACCOUNT"`

	LockDuration       time.Duration `env:"VERIFIER_SPACE_LOCK_DURATION" envDefault:"72h"`
	ConsensusThreshold int           `env:"VERIFIER_SPACE_CONSENSUS_THRESHOLD" envDefault:"5"`
	PoolSize           int           `env:"VERIFIER_SPACE_POOL_SIZE" envDefault:"9"`
	ReputationReward   int           `env:"VERIFIER_SPACE_REPUTATION_REWARD" envDefault:"1"`
	ReputationPenalty  int           `env:"VERIFIER_SPACE_REPUTATION_PENALTY" envDefault:"10"`

	SweepInterval time.Duration `env:"VERIFIER_SPACE_SWEEP_INTERVAL" envDefault:"0s"`
	SweepBatch    int           `env:"VERIFIER_SPACE_SWEEP_BATCH" envDefault:"100"`

	LedgerTimeout time.Duration `env:"VERIFIER_SPACE_LEDGER_TIMEOUT" envDefault:"10s"`
	// LedgerFees is a comma list of asset=fee pairs for the in-process ledger.
	LedgerFees string `env:"VERIFIER_SPACE_LEDGER_FEES"`

	LogLevel string `env:"VERIFIER_SPACE_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"VERIFIER_SPACE_LOG_JSON" envDefault:"false"`

	MCPAllowedHosts string `env:"VERIFIER_SPACE_MCP_ALLOWED_HOSTS"`
	MCPToken        string `env:"VERIFIER_SPACE_MCP_TOKEN"`

	APIKeyCacheSize int `env:"VERIFIER_SPACE_API_KEY_CACHE_SIZE" envDefault:"1024"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "MCP and metrics HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "gRPC health port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the sqlite database")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "initial owner account, ignored once an owner is persisted")
	fs.StringVar(&cfg.EscrowAccounts, "escrow-accounts", cfg.EscrowAccounts, "comma-separated accounts allowed to create bounties")
	fs.StringVar(&cfg.CustodyAccount, "custody-account", cfg.CustodyAccount, "payment ledger account holding deposits")
	fs.DurationVar(&cfg.LockDuration, "lock-duration", cfg.LockDuration, "how long a reservation stays exclusive")
	fs.IntVar(&cfg.ConsensusThreshold, "consensus-threshold", cfg.ConsensusThreshold, "matching verdicts that finalize a pair")
	fs.IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "verifier pool size per pair")
	fs.IntVar(&cfg.ReputationReward, "reputation-reward", cfg.ReputationReward, "reputation added on release")
	fs.IntVar(&cfg.ReputationPenalty, "reputation-penalty", cfg.ReputationPenalty, "reputation removed on slash")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "expired lock sweep interval (0 disables)")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "expired locks cleaned per sweep")
	fs.DurationVar(&cfg.LedgerTimeout, "ledger-timeout", cfg.LedgerTimeout, "timeout for one payment ledger call")
	fs.StringVar(&cfg.LedgerFees, "ledger-fees", cfg.LedgerFees, "comma-separated asset=fee pairs")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON logs")
	fs.StringVar(&cfg.MCPAllowedHosts, "mcp-allowed-hosts", cfg.MCPAllowedHosts, "comma-separated non-loopback hosts accepted by /mcp")
	fs.IntVar(&cfg.APIKeyCacheSize, "api-key-cache-size", cfg.APIKeyCacheSize, "validated api key cache entries")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CustodyAccount) == "" {
		return fmt.Errorf("custody account is required")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health port %d is out of range", c.HealthPort)
	}
	if err := c.threshold().Validate(); err != nil {
		return err
	}
	if c.ReputationReward < 0 || c.ReputationPenalty < 0 {
		return fmt.Errorf("reputation adjustments must not be negative")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval must not be negative")
	}
	if _, err := parseFees(c.LedgerFees); err != nil {
		return err
	}
	return nil
}

func (c Config) threshold() audit.Threshold {
	return audit.Threshold{Required: c.ConsensusThreshold, PoolSize: c.PoolSize}
}

// AppConfig maps the command configuration onto the runtime.
func (c Config) AppConfig() (server.Config, error) {
	fees, err := parseFees(c.LedgerFees)
	if err != nil {
		return server.Config{}, err
	}
	escrow := make([]account.ID, 0)
	for _, id := range config.SplitList(c.EscrowAccounts) {
		escrow = append(escrow, account.ID(id))
	}
	ledgerTimeout := c.LedgerTimeout
	if ledgerTimeout <= 0 {
		ledgerTimeout = timeouts.LedgerCall
	}
	return server.Config{
		HTTPAddr:   c.HTTPAddr,
		HealthAddr: net.JoinHostPort("", strconv.Itoa(c.HealthPort)),
		DBPath:     c.DBPath,
		Engine: engine.Options{
			Owner:             account.ID(strings.TrimSpace(c.Owner)),
			EscrowAccounts:    escrow,
			Custody:           account.ID(strings.TrimSpace(c.CustodyAccount)),
			LockDuration:      c.LockDuration,
			Threshold:         c.threshold(),
			ReputationReward:  c.ReputationReward,
			ReputationPenalty: c.ReputationPenalty,
			LedgerTimeout:     ledgerTimeout,
			APIKeyCacheSize:   c.APIKeyCacheSize,
		},
		LedgerFees:    fees,
		SweepInterval: c.SweepInterval,
		SweepBatch:    c.SweepBatch,
		MCP: mcpservice.HTTPOptions{
			AllowedHosts: config.SplitList(c.MCPAllowedHosts),
			Token:        c.MCPToken,
		},
	}, nil
}

// parseFees reads "asset=fee" pairs.
func parseFees(value string) (map[ledger.AssetID]ledger.Amount, error) {
	fees := make(map[ledger.AssetID]ledger.Amount)
	for _, entry := range config.SplitList(value) {
		asset, raw, ok := strings.Cut(entry, "=")
		asset = strings.TrimSpace(asset)
		if !ok || asset == "" {
			return nil, fmt.Errorf("ledger fee %q must look like asset=amount", entry)
		}
		fee, err := ledger.ParseAmount(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("ledger fee for %s: %w", asset, err)
		}
		fees[ledger.AssetID(asset)] = fee
	}
	return fees, nil
}

// Run starts the verifier service.
func Run(ctx context.Context, cfg Config) error {
	log, err := logging.New(entrypoint.ServiceVerifier, logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	appCfg, err := cfg.AppConfig()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceVerifier, entrypoint.RunOptions{Logger: log}, func(ctx context.Context) error {
		return server.Run(ctx, appCfg, log)
	})
}
