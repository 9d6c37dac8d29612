package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
	mcpdomain "github.com/louisbranch/verifier.space/internal/services/verifier/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:   "127.0.0.1:0",
		HealthAddr: "127.0.0.1:0",
		DBPath:     filepath.Join(t.TempDir(), "nested", "verifier.db"),
		Engine: engine.Options{
			Owner:   "admin",
			Custody: "custody",
		},
		LedgerFees:    map[ledger.AssetID]ledger.Amount{"usdc": ledger.NewAmount(1)},
		SweepInterval: time.Hour,
	}
}

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Errorf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Error("timeout waiting for server shutdown")
		}
	})
	return srv
}

func TestServerReportsHealth(t *testing.T) {
	srv := startServer(t, testConfig(t))

	conn, err := grpc.NewClient(srv.HealthAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: healthServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestServerExposesMetrics(t *testing.T) {
	srv := startServer(t, testConfig(t))

	if _, err := srv.Engine().Owner(context.Background()); err != nil {
		t.Fatalf("owner: %v", err)
	}

	resp, err := http.Get("http://" + srv.HTTPAddr() + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "verifier_") {
		t.Fatalf("metrics missing verifier series:\n%s", body)
	}
}

func TestServerServesMCPOverHTTP(t *testing.T) {
	srv := startServer(t, testConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: "http://" + srv.HTTPAddr() + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "owner_get", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call owner_get: %v", err)
	}
	if result == nil || result.IsError {
		t.Fatalf("owner_get failed: %+v", result)
	}
}

func callTool[T any](t *testing.T, ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result == nil || result.IsError {
		t.Fatalf("%s failed: %+v", name, result)
	}
	var out T
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s result: %v", name, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s result: %v", name, err)
	}
	return out
}

func TestServerFundsAndReservesOverMCP(t *testing.T) {
	srv := startServer(t, testConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: "http://" + srv.HTTPAddr() + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Close()

	minted := callTool[mcpdomain.LedgerMintResult](t, ctx, session, "ledger_mint", map[string]any{
		"caller": "admin", "account": "alice", "asset": "usdc", "amount": "11",
	})
	if minted.Held != "11" {
		t.Fatalf("minted = %+v, want 11 held", minted)
	}
	callTool[mcpdomain.LedgerApproveResult](t, ctx, session, "ledger_approve", map[string]any{
		"caller": "admin", "account": "alice", "asset": "usdc", "amount": "11",
	})
	deposited := callTool[mcpdomain.BalanceResult](t, ctx, session, "deposit", map[string]any{
		"caller": "alice", "asset": "usdc", "amount": "10",
	})
	if deposited.Available != "10" {
		t.Fatalf("deposit = %+v, want 10 available", deposited)
	}

	callTool[mcpdomain.RequirementResult](t, ctx, session, "stake_requirement_set", map[string]any{
		"caller": "admin", "audit_type": "build_v1", "asset": "usdc", "amount": "4",
	})
	created := callTool[mcpdomain.BountyResult](t, ctx, session, "bounty_create", map[string]any{
		"caller": "admin", "artifact_hash": "sha256:abc", "audit_type": "build_v1", "reward_asset": "usdc", "reward_amount": "10",
	})
	lock := callTool[mcpdomain.LockResult](t, ctx, session, "bounty_reserve", map[string]any{
		"caller": "alice", "bounty_id": created.ID, "audit_type": "build_v1",
	})
	if lock.Claimant != "alice" || lock.StakeAmount != "4" {
		t.Fatalf("lock = %+v, want alice staking 4", lock)
	}

	balances := callTool[mcpdomain.BalanceListResult](t, ctx, session, "balance_list", map[string]any{"account": "alice"})
	if len(balances.Balances) != 1 || balances.Balances[0].Available != "6" || balances.Balances[0].Staked != "4" {
		t.Fatalf("balances = %+v, want 6 available and 4 staked", balances.Balances)
	}
}

func TestNewFailsOnInvalidEngineOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.Custody = ""
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error without custody account")
	}
}
