package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
)

type fakeEngine struct {
	mu       sync.Mutex
	expired  []bounty.Lock
	failOn   bounty.ID
	cleaned  []bounty.ID
	listErr  error
	lastSize int
}

func (f *fakeEngine) ExpiredLocks(_ context.Context, limit int) ([]bounty.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSize = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]bounty.Lock(nil), f.expired...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEngine) CleanupExpiredLock(_ context.Context, id bounty.ID) (engine.CleanupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failOn {
		return engine.CleanupResult{}, errors.New("boom")
	}
	f.cleaned = append(f.cleaned, id)
	for i, lock := range f.expired {
		if lock.BountyID == id {
			f.expired = append(f.expired[:i], f.expired[i+1:]...)
			return engine.CleanupResult{Slashed: true, Lock: lock}, nil
		}
	}
	return engine.CleanupResult{}, nil
}

func (f *fakeEngine) cleanedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cleaned)
}

func TestSweepSlashesBatch(t *testing.T) {
	eng := &fakeEngine{expired: []bounty.Lock{{BountyID: 1}, {BountyID: 2}, {BountyID: 3}}}
	s := New(eng, Config{BatchSize: 2}, zerolog.Nop())

	slashed, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if slashed != 2 {
		t.Fatalf("slashed = %d, want 2", slashed)
	}
	if eng.lastSize != 2 {
		t.Fatalf("batch size = %d, want 2", eng.lastSize)
	}
	if len(eng.expired) != 1 || eng.expired[0].BountyID != 3 {
		t.Fatalf("remaining = %+v, want bounty 3", eng.expired)
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	eng := &fakeEngine{expired: []bounty.Lock{{BountyID: 1}, {BountyID: 2}}, failOn: 1}
	s := New(eng, Config{}, zerolog.Nop())

	slashed, err := s.Sweep(context.Background())
	if err == nil {
		t.Fatal("expected cleanup error")
	}
	if slashed != 1 {
		t.Fatalf("slashed = %d, want 1", slashed)
	}
}

func TestSweepReportsListError(t *testing.T) {
	eng := &fakeEngine{listErr: errors.New("db closed")}
	s := New(eng, Config{}, zerolog.Nop())
	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	eng := &fakeEngine{expired: []bounty.Lock{{BountyID: 9}}}
	s := New(eng, Config{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for eng.cleanedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestDefaultsApplied(t *testing.T) {
	s := New(&fakeEngine{}, Config{}, zerolog.Nop())
	if s.cfg.Interval != DefaultInterval || s.cfg.BatchSize != DefaultBatchSize {
		t.Fatalf("config = %+v, want defaults", s.cfg)
	}
}
