// Package server wires the verifier runtime: storage, engine, MCP over HTTP,
// metrics, gRPC health and the optional lock sweeper.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/louisbranch/verifier.space/internal/platform/logging"
	"github.com/louisbranch/verifier.space/internal/platform/timeouts"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
	mcpservice "github.com/louisbranch/verifier.space/internal/services/verifier/mcp/service"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment/memory"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage/sqlite"
	"github.com/louisbranch/verifier.space/internal/services/verifier/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// healthServiceName is the gRPC health entry reported for the verifier.
const healthServiceName = "verifier.v1.Verifier"

// Config carries everything the runtime needs after flag and env parsing.
type Config struct {
	HTTPAddr   string
	HealthAddr string
	DBPath     string

	// Engine is passed through; Logger and Metrics are filled in here.
	Engine engine.Options
	// LedgerFees seeds the in-process payment ledger.
	LedgerFees map[ledger.AssetID]ledger.Amount

	SweepInterval time.Duration
	SweepBatch    int

	MCP mcpservice.HTTPOptions
}

// Server hosts the verifier HTTP and gRPC health listeners.
type Server struct {
	httpListener   net.Listener
	healthListener net.Listener
	httpServer     *http.Server
	grpcServer     *grpc.Server
	health         *health.Server
	store          *sqlite.Store
	engine         *engine.Engine
	sweeper        *sweep.Sweeper
	log            zerolog.Logger
}

// New opens storage, builds the engine and binds both listeners.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Server, error) {
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := engine.NewCollector(registry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	log.Warn().Msg("using in-process payment ledger; fund accounts with ledger_mint and ledger_approve, balances outside the verifier are not durable")
	payments := memory.New(cfg.LedgerFees)

	opts := cfg.Engine
	opts.Logger = logging.Component(log, "engine")
	opts.Metrics = metrics
	eng, err := engine.New(ctx, store, payments, opts)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	mcpServer, err := mcpservice.New(eng, logging.Component(log, "mcp"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpservice.NewHTTPHandler(mcpServer, cfg.MCP))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	var sweeper *sweep.Sweeper
	if cfg.SweepInterval > 0 {
		sweeper = sweep.New(eng, sweep.Config{Interval: cfg.SweepInterval, BatchSize: cfg.SweepBatch}, logging.Component(log, "sweeper"))
	}

	return &Server{
		httpListener:   httpListener,
		healthListener: healthListener,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		engine:     eng,
		sweeper:    sweeper,
		log:        logging.Component(log, "server"),
	}, nil
}

// HTTPAddr returns the bound MCP and metrics address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the bound gRPC health address.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Engine exposes the running engine.
func (s *Server) Engine() *engine.Engine {
	if s == nil {
		return nil
	}
	return s.engine
}

// Run creates a server and serves it until ctx is cancelled.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) error {
	server, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs every listener until ctx is cancelled or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Error().Err(err).Msg("close server")
		}
	}()

	s.log.Info().Str("http_addr", s.HTTPAddr()).Str("health_addr", s.HealthAddr()).Msg("verifier listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.grpcServer.Serve(s.healthListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	if s.sweeper != nil {
		g.Go(func() error {
			return s.sweeper.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.grpcServer.GracefulStop()
		if err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close releases listeners and storage. It is safe to call more than once.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var result *multierror.Error
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close HTTP server: %w", err))
		}
	}
	for _, listener := range []net.Listener{s.httpListener, s.healthListener} {
		if listener == nil {
			continue
		}
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, fmt.Errorf("close listener: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
		s.store = nil
	}
	return result.ErrorOrNil()
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open verifier sqlite store: %w", err)
	}
	return store, nil
}
