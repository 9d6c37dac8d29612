// Package account models a verifier's reputation and lifetime statistics.
//
// Accounts are created lazily on the first balance-affecting call and are
// never deleted. Only settlement outcomes (stake release or slash) move
// reputation or earnings.
package account

import (
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

const (
	// DefaultReputation is the score of a newly created account.
	DefaultReputation = 100
	// MaxReputation caps the score.
	MaxReputation = 100
	// MinReputation floors the score.
	MinReputation = 0
)

// ID identifies a verifier (a principal in the identity layer).
type ID string

// Account is one verifier's profile.
type Account struct {
	ID                 ID
	ReputationScore    int
	TotalEarnings      ledger.Amount
	TotalVerifications uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New returns a fresh account with default reputation.
func New(id ID, now time.Time) Account {
	return Account{
		ID:              id,
		ReputationScore: DefaultReputation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Released applies a successful verification: earnings grow by the released
// stake, the verification count increments and reputation rises by reward,
// capped at MaxReputation.
func (a Account) Released(stake ledger.Amount, reward int, now time.Time) (Account, error) {
	earnings, err := a.TotalEarnings.Add(stake)
	if err != nil {
		return a, err
	}
	a.TotalEarnings = earnings
	a.TotalVerifications++
	a.ReputationScore = clamp(a.ReputationScore + reward)
	a.UpdatedAt = now
	return a, nil
}

// Slashed applies a penalty: reputation drops by penalty, floored at
// MinReputation. Earnings are left unchanged.
func (a Account) Slashed(penalty int, now time.Time) Account {
	a.ReputationScore = clamp(a.ReputationScore - penalty)
	a.UpdatedAt = now
	return a
}

func clamp(score int) int {
	if score > MaxReputation {
		return MaxReputation
	}
	if score < MinReputation {
		return MinReputation
	}
	return score
}
