package account

import (
	"testing"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

func TestNewAccountDefaults(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	a := New("alice", now)
	if a.ReputationScore != DefaultReputation {
		t.Fatalf("reputation = %d, want %d", a.ReputationScore, DefaultReputation)
	}
	if !a.TotalEarnings.IsZero() || a.TotalVerifications != 0 {
		t.Fatalf("expected empty stats, got %+v", a)
	}
}

func TestReleasedCapsReputation(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	a := New("alice", now)
	a, err := a.Released(ledger.NewAmount(1), 1, now)
	if err != nil {
		t.Fatalf("released: %v", err)
	}
	if a.ReputationScore != MaxReputation {
		t.Fatalf("reputation = %d, want %d", a.ReputationScore, MaxReputation)
	}
	if a.TotalEarnings != ledger.NewAmount(1) {
		t.Fatalf("earnings = %s, want 1", a.TotalEarnings)
	}
	if a.TotalVerifications != 1 {
		t.Fatalf("verifications = %d, want 1", a.TotalVerifications)
	}
}

func TestSlashedFloorsReputation(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	a := New("bob", now)
	for i := 0; i < 15; i++ {
		a = a.Slashed(10, now)
	}
	if a.ReputationScore != MinReputation {
		t.Fatalf("reputation = %d, want %d", a.ReputationScore, MinReputation)
	}
	if !a.TotalEarnings.IsZero() {
		t.Fatalf("slash changed earnings to %s", a.TotalEarnings)
	}
}

func TestReleaseAfterSlashRecovers(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	a := New("carol", now).Slashed(10, now)
	a, err := a.Released(ledger.NewAmount(3), 1, now)
	if err != nil {
		t.Fatalf("released: %v", err)
	}
	if a.ReputationScore != 91 {
		t.Fatalf("reputation = %d, want 91", a.ReputationScore)
	}
}
