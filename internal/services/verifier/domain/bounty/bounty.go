// Package bounty models escrowed verification bounties, the stake each audit
// type requires, and the exclusive time-bounded locks verifiers take on them.
package bounty

import (
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// ID identifies a bounty. IDs are assigned by storage in creation order.
type ID uint64

// ChallengeParameters describes what a bounty pays for. ArtifactHash and
// AuditType select the consensus pair the bounty votes on; Extra is opaque
// to the engine.
type ChallengeParameters struct {
	ArtifactHash string
	AuditType    string
	Extra        map[string]string
}

// Validate checks the fields the engine depends on.
func (p ChallengeParameters) Validate() error {
	if strings.TrimSpace(p.ArtifactHash) == "" {
		return errors.New("artifact hash is required")
	}
	if strings.TrimSpace(p.AuditType) == "" {
		return errors.New("audit type is required")
	}
	return nil
}

// Claim records that a verifier's work on the bounty was accepted by
// consensus. The escrow collaborator pays rewards against claims.
type Claim struct {
	Claimant  account.ID
	ClaimedAt time.Time
}

// Bounty is an escrowed reward for one verification of one artifact and
// audit type. It is immutable after creation except for appended claims.
type Bounty struct {
	ID           ID
	Creator      account.ID
	Challenge    ChallengeParameters
	RewardAsset  ledger.AssetID
	RewardAmount ledger.Amount
	TimeoutAt    time.Time
	CreatedAt    time.Time
	Claims       []Claim
}

// Expired reports whether the bounty's own deadline has passed. A zero
// TimeoutAt never expires.
func (b Bounty) Expired(now time.Time) bool {
	return !b.TimeoutAt.IsZero() && now.After(b.TimeoutAt)
}

// Matches reports whether the bounty votes on the given pair.
func (b Bounty) Matches(artifactID, auditType string) bool {
	return b.Challenge.ArtifactHash == artifactID && b.Challenge.AuditType == auditType
}
