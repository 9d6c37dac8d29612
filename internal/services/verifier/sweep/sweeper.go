// Package sweep periodically slashes abandoned bounty reservations.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
)

const (
	// DefaultInterval is the pause between sweeps.
	DefaultInterval = time.Minute
	// DefaultBatchSize bounds the locks settled per sweep.
	DefaultBatchSize = 100
)

// Engine is the slice of the verifier engine the sweeper drives.
type Engine interface {
	ExpiredLocks(ctx context.Context, limit int) ([]bounty.Lock, error)
	CleanupExpiredLock(ctx context.Context, bountyID bounty.ID) (engine.CleanupResult, error)
}

// Config controls sweep cadence.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Sweeper calls CleanupExpiredLock for every abandoned lock on a timer.
type Sweeper struct {
	engine Engine
	cfg    Config
	log    zerolog.Logger
}

// New builds a sweeper over eng.
func New(eng Engine, cfg Config, log zerolog.Logger) *Sweeper {
	return &Sweeper{engine: eng, cfg: cfg.normalized(), log: log}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if s == nil || s.engine == nil {
		return fmt.Errorf("sweeper engine is required")
	}
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// Sweep settles one batch of abandoned locks and returns how many were
// slashed. A failure on one lock does not stop the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	locks, err := s.engine.ExpiredLocks(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired locks: %w", err)
	}
	slashed := 0
	var firstErr error
	for _, lock := range locks {
		if ctx.Err() != nil {
			return slashed, ctx.Err()
		}
		result, err := s.engine.CleanupExpiredLock(ctx, lock.BountyID)
		if err != nil {
			s.log.Warn().Err(err).Uint64("bounty_id", uint64(lock.BountyID)).Msg("cleanup expired lock failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("cleanup bounty %d: %w", lock.BountyID, err)
			}
			continue
		}
		if result.Slashed {
			slashed++
		}
	}
	return slashed, firstErr
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	slashed, err := s.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("expired lock sweep failed")
		return
	}
	if slashed > 0 {
		s.log.Info().Int("slashed", slashed).Msg("expired lock sweep")
	}
}
