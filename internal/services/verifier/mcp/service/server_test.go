package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
	"github.com/louisbranch/verifier.space/internal/services/verifier/mcp/domain"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment/memory"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "verifier.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	payments := memory.New(map[ledger.AssetID]ledger.Amount{"usdc": ledger.NewAmount(1)})
	eng, err := engine.New(context.Background(), store, payments, engine.Options{Owner: "admin", Custody: "custody"})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	server, err := New(eng, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		defer session.Close()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return session
}

func decodeStructuredContent[T any](t *testing.T, content any) T {
	t.Helper()
	var out T
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestServerListsEveryTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"deposit", "withdraw", "balance_list", "account_get", "treasury_get", "ledger_mint", "ledger_approve",
		"stake_requirement_set", "stake_requirement_get", "stake_requirement_list",
		"bounty_create", "bounty_get", "bounty_list",
		"bounty_reserve", "lock_get", "lock_cleanup", "stake_release", "stake_slash",
		"attestation_file", "divergence_file", "outcome_get", "artifact_verified", "audit_record_list",
		"api_key_generate", "api_key_revoke", "api_key_list", "owner_get", "owner_transfer", "event_list",
	} {
		if !names[want] {
			t.Fatalf("tool %q not registered", want)
		}
	}
}

func TestCallToolRoundTrip(t *testing.T) {
	session := connect(t, newTestServer(t))
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "owner_get", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call owner_get: %v", err)
	}
	if result == nil || result.IsError {
		t.Fatalf("owner_get failed: %+v", result)
	}
	owner := decodeStructuredContent[domain.OwnerResult](t, result.StructuredContent)
	if owner.Owner != "admin" {
		t.Fatalf("owner = %q, want admin", owner.Owner)
	}

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "stake_requirement_set",
		Arguments: map[string]any{"caller": "mallory", "audit_type": "build_v1", "asset": "usdc", "amount": "1"},
	})
	if err != nil {
		t.Fatalf("call stake_requirement_set: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatalf("expected tool error for non-owner, got %+v", result)
	}
}
