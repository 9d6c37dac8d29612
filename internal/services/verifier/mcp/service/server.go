package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/verifier.space/internal/services/verifier/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

const (
	// serverName identifies the MCP implementation to clients.
	serverName = "verifier.space"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the verifier tools over MCP.
type Server struct {
	mcpServer *mcp.Server
	log       zerolog.Logger
}

// New registers every tool module against svc.
func New(svc domain.Verifier, log zerolog.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("verifier service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Instructions: "Stake-backed verification bounties. Accounts are passed explicitly as caller; the HTTP endpoint is expected to sit behind an authenticating gateway.",
	})
	for _, module := range mcpRegistrationModules() {
		module.register(mcpServer, svc)
		log.Debug().Str("module", module.name).Msg("registered mcp module")
	}
	return &Server{mcpServer: mcpServer, log: log}, nil
}

// MCPServer exposes the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	if s == nil {
		return nil
	}
	return s.mcpServer
}

// Serve runs the server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport treats cancellation as a clean shutdown.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}
