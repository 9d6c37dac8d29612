package bounty

import (
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// Lock grants one verifier exclusive rights to a bounty until ExpiresAt.
// The stake asset and amount are captured at reservation time so a later
// requirement change never alters what is released or slashed.
type Lock struct {
	BountyID    ID
	Claimant    account.ID
	StakeAsset  ledger.AssetID
	StakeAmount ledger.Amount
	LockedAt    time.Time
	ExpiresAt   time.Time
}

// NewLock creates a lock for claimant backed by req, valid for duration.
// Timestamps are kept at millisecond precision, the resolution they are
// stored with, so a stored lock expires at the same instant as a fresh one.
func NewLock(bountyID ID, claimant account.ID, req StakeRequirement, now time.Time, duration time.Duration) Lock {
	now = now.UTC().Truncate(time.Millisecond)
	return Lock{
		BountyID:    bountyID,
		Claimant:    claimant,
		StakeAsset:  req.Asset,
		StakeAmount: req.Amount,
		LockedAt:    now,
		ExpiresAt:   now.Add(duration).Truncate(time.Millisecond),
	}
}

// Expired reports now > ExpiresAt. A lock is live up to and including its
// expiry instant.
func (l Lock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// HeldBy reports whether the lock is live and owned by claimant.
func (l Lock) HeldBy(claimant account.ID, now time.Time) bool {
	return l.Claimant == claimant && !l.Expired(now)
}
