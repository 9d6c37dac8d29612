package bounty

import (
	"testing"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

func TestChallengeParametersValidate(t *testing.T) {
	cases := []struct {
		name    string
		params  ChallengeParameters
		wantErr bool
	}{
		{name: "ok", params: ChallengeParameters{ArtifactHash: "abc", AuditType: "build_v1"}},
		{name: "missing artifact", params: ChallengeParameters{AuditType: "build_v1"}, wantErr: true},
		{name: "missing audit type", params: ChallengeParameters{ArtifactHash: "abc"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("validate error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBountyExpiry(t *testing.T) {
	now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	b := Bounty{TimeoutAt: now}
	if b.Expired(now) {
		t.Fatal("bounty should be open at its timeout instant")
	}
	if !b.Expired(now.Add(time.Nanosecond)) {
		t.Fatal("bounty should expire after its timeout")
	}
	if (Bounty{}).Expired(now) {
		t.Fatal("bounty without timeout should never expire")
	}
}

func TestBountyMatches(t *testing.T) {
	b := Bounty{Challenge: ChallengeParameters{ArtifactHash: "abc", AuditType: "build_v1"}}
	if !b.Matches("abc", "build_v1") {
		t.Fatal("expected match")
	}
	if b.Matches("abc", "data_safety_v1") {
		t.Fatal("expected audit type mismatch")
	}
}

func TestLockLifetime(t *testing.T) {
	now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	req := StakeRequirement{AuditType: "build_v1", Asset: "usdc", Amount: ledger.NewAmount(1)}
	l := NewLock(7, "alice", req, now, time.Hour)

	if l.StakeAmount != ledger.NewAmount(1) || l.StakeAsset != "usdc" {
		t.Fatalf("lock stake = %s %s", l.StakeAmount, l.StakeAsset)
	}
	if !l.HeldBy("alice", now.Add(time.Hour)) {
		t.Fatal("lock should be live at its expiry instant")
	}
	if l.HeldBy("bob", now) {
		t.Fatal("lock should not be held by another account")
	}
	if !l.Expired(now.Add(time.Hour + time.Second)) {
		t.Fatal("lock should expire after duration")
	}
}

func TestLockTimestampsUseMillisecondPrecision(t *testing.T) {
	now := time.Date(2026, time.April, 2, 9, 0, 0, 123456789, time.FixedZone("X", 3600))
	req := StakeRequirement{AuditType: "build_v1", Asset: "usdc", Amount: ledger.NewAmount(1)}
	l := NewLock(7, "alice", req, now, time.Hour+time.Microsecond)

	wantLocked := time.Date(2026, time.April, 2, 8, 0, 0, 123000000, time.UTC)
	if !l.LockedAt.Equal(wantLocked) || l.LockedAt.Location() != time.UTC {
		t.Fatalf("locked at = %v, want %v", l.LockedAt, wantLocked)
	}
	if want := wantLocked.Add(time.Hour); !l.ExpiresAt.Equal(want) {
		t.Fatalf("expires at = %v, want %v", l.ExpiresAt, want)
	}
}

func TestStakeRequirementValidate(t *testing.T) {
	if err := (StakeRequirement{AuditType: "build_v1", Asset: "usdc"}).Validate(); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
	if err := (StakeRequirement{AuditType: "build_v1", Asset: "usdc", Amount: ledger.NewAmount(1)}).Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
