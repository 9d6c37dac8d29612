package verifier

import (
	"flag"
	"testing"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("VERIFIER_SPACE_CUSTODY_ACCOUNT", "custody")

	cfg, err := ParseConfig(flag.NewFlagSet("verifier", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8090" {
		t.Fatalf("http addr = %q, want localhost:8090", cfg.HTTPAddr)
	}
	if cfg.LockDuration != 72*time.Hour {
		t.Fatalf("lock duration = %v, want 72h", cfg.LockDuration)
	}
	if cfg.ConsensusThreshold != 5 || cfg.PoolSize != 9 {
		t.Fatalf("threshold = %d/%d, want 5/9", cfg.ConsensusThreshold, cfg.PoolSize)
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("sweep interval = %v, want disabled", cfg.SweepInterval)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("VERIFIER_SPACE_CUSTODY_ACCOUNT", "custody")
	t.Setenv("VERIFIER_SPACE_OWNER", "env-owner")
	t.Setenv("VERIFIER_SPACE_ESCROW_ACCOUNTS", "escrow-a, escrow-b")

	args := []string{"-owner", "flag-owner", "-consensus-threshold", "3", "-pool-size", "5", "-ledger-fees", "usdc=2,eth=0"}
	cfg, err := ParseConfig(flag.NewFlagSet("verifier", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	appCfg, err := cfg.AppConfig()
	if err != nil {
		t.Fatalf("app config: %v", err)
	}
	if appCfg.Engine.Owner != "flag-owner" {
		t.Fatalf("owner = %q, want flag-owner", appCfg.Engine.Owner)
	}
	if len(appCfg.Engine.EscrowAccounts) != 2 || appCfg.Engine.EscrowAccounts[1] != account.ID("escrow-b") {
		t.Fatalf("escrow = %v", appCfg.Engine.EscrowAccounts)
	}
	if appCfg.Engine.Threshold.Required != 3 || appCfg.Engine.Threshold.PoolSize != 5 {
		t.Fatalf("threshold = %+v, want 3/5", appCfg.Engine.Threshold)
	}
	if got := appCfg.LedgerFees["usdc"]; got.Cmp(ledger.NewAmount(2)) != 0 {
		t.Fatalf("usdc fee = %s, want 2", got)
	}
	if appCfg.HealthAddr != ":8091" {
		t.Fatalf("health addr = %q, want :8091", appCfg.HealthAddr)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	valid := Config{
		CustodyAccount:     "custody",
		HealthPort:         8091,
		ConsensusThreshold: 5,
		PoolSize:           9,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing custody", mutate: func(c *Config) { c.CustodyAccount = " " }},
		{name: "minority threshold", mutate: func(c *Config) { c.ConsensusThreshold = 4 }},
		{name: "threshold above pool", mutate: func(c *Config) { c.ConsensusThreshold = 10 }},
		{name: "negative penalty", mutate: func(c *Config) { c.ReputationPenalty = -1 }},
		{name: "bad health port", mutate: func(c *Config) { c.HealthPort = 0 }},
		{name: "malformed fee", mutate: func(c *Config) { c.LedgerFees = "usdc" }},
		{name: "negative fee", mutate: func(c *Config) { c.LedgerFees = "usdc=-1" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
