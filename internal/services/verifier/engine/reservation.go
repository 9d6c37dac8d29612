package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// Slash reasons recorded on events and metrics.
const (
	SlashReasonAbandoned          = "abandoned"
	SlashReasonIncorrectConsensus = "incorrect_consensus"
)

// CleanupResult reports what CleanupExpiredLock did.
type CleanupResult struct {
	// Slashed is false when the call was a no-op.
	Slashed bool
	Lock    bounty.Lock
}

// ReserveBounty stakes the requirement for auditType from the caller's
// available balance and grants an exclusive lock on the bounty.
func (e *Engine) ReserveBounty(ctx context.Context, caller account.ID, bountyID bounty.ID, auditType string) (bounty.Lock, error) {
	if err := requireCaller(caller); err != nil {
		return bounty.Lock{}, err
	}
	var lock bounty.Lock
	err := e.update(ctx, "ReserveBounty", func(ctx context.Context, tx storage.Tx) error {
		var err error
		lock, err = e.reserve(ctx, tx, caller, bountyID, auditType)
		return err
	})
	if err != nil {
		return bounty.Lock{}, err
	}
	e.opts.Metrics.StakeLocked(string(lock.StakeAsset))
	e.log.Info().Uint64("bounty_id", uint64(bountyID)).Str("account", string(caller)).Time("expires_at", lock.ExpiresAt).Msg("bounty reserved")
	return lock, nil
}

// ReserveBountyWithAPIKey reserves on behalf of the key's owner.
func (e *Engine) ReserveBountyWithAPIKey(ctx context.Context, key string, bountyID bounty.ID, auditType string) (bounty.Lock, error) {
	var lock bounty.Lock
	err := e.update(ctx, "ReserveBountyWithAPIKey", func(ctx context.Context, tx storage.Tx) error {
		owner, err := e.validateKey(ctx, tx, key)
		if err != nil {
			return err
		}
		lock, err = e.reserve(ctx, tx, owner, bountyID, auditType)
		return err
	})
	if err != nil {
		return bounty.Lock{}, err
	}
	e.opts.Metrics.StakeLocked(string(lock.StakeAsset))
	e.log.Info().Uint64("bounty_id", uint64(bountyID)).Str("account", string(lock.Claimant)).Bool("api_key", true).Msg("bounty reserved")
	return lock, nil
}

func (e *Engine) reserve(ctx context.Context, tx storage.Tx, caller account.ID, bountyID bounty.ID, auditType string) (bounty.Lock, error) {
	now := e.now()
	auditType = strings.TrimSpace(auditType)

	b, err := getBounty(ctx, tx, bountyID)
	if err != nil {
		return bounty.Lock{}, err
	}
	if b.Challenge.AuditType != auditType {
		return bounty.Lock{}, bountyError(apperrors.CodeBountyPairMismatch, bountyID, "audit type does not match bounty")
	}
	req, err := tx.GetStakeRequirement(ctx, auditType)
	if errors.Is(err, storage.ErrNotFound) {
		return bounty.Lock{}, apperrors.WithMetadata(apperrors.CodeNoStakeRequirementConfigured, "no stake requirement configured", map[string]string{
			"AuditType": auditType,
		})
	}
	if err != nil {
		return bounty.Lock{}, err
	}
	if b.Expired(now) {
		return bounty.Lock{}, bountyError(apperrors.CodeBountyExpired, bountyID, "bounty expired")
	}
	voted, err := tx.BountyVoted(ctx, bountyID)
	if err != nil {
		return bounty.Lock{}, err
	}
	if voted {
		return bounty.Lock{}, bountyError(apperrors.CodeBountyAlreadyClaimed, bountyID, "bounty already has a vote")
	}

	existing, err := tx.GetLock(ctx, bountyID)
	switch {
	case err == nil && !existing.Expired(now):
		return bounty.Lock{}, bountyError(apperrors.CodeBountyAlreadyLocked, bountyID, "bounty already locked")
	case err == nil:
		// Unvoted and expired: abandoned. Settle it before relocking.
		if err := e.slashLock(ctx, tx, existing, SlashReasonAbandoned, now); err != nil {
			return bounty.Lock{}, err
		}
	case !errors.Is(err, storage.ErrNotFound):
		return bounty.Lock{}, err
	}

	if _, err := e.ensureAccount(ctx, tx, caller, now); err != nil {
		return bounty.Lock{}, err
	}
	if _, err := moveStake(ctx, tx, caller, req.Asset, req.Amount, ledger.Balance.Stake); err != nil {
		return bounty.Lock{}, err
	}
	lock := bounty.NewLock(bountyID, caller, req, now, e.opts.LockDuration)
	if err := tx.PutLock(ctx, lock); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return bounty.Lock{}, bountyError(apperrors.CodeBountyAlreadyLocked, bountyID, "bounty already locked")
		}
		return bounty.Lock{}, err
	}
	if err := e.appendEvent(ctx, tx, eventRecord{
		Type:      eventBountyReserved,
		Pair:      pairOf(b),
		BountyID:  bountyID,
		AccountID: caller,
		Payload: map[string]any{
			"stake_asset":  string(lock.StakeAsset),
			"stake_amount": lock.StakeAmount.String(),
			"expires_at":   lock.ExpiresAt.Format(time.RFC3339Nano),
		},
	}); err != nil {
		return bounty.Lock{}, err
	}
	return lock, nil
}

// CleanupExpiredLock slashes an abandoned reservation: a lock past its
// expiry whose bounty never received a vote before its pair finalized. Anything else is a no-op, so
// the call is idempotent and safe for anyone to make.
func (e *Engine) CleanupExpiredLock(ctx context.Context, bountyID bounty.ID) (CleanupResult, error) {
	var result CleanupResult
	err := e.update(ctx, "CleanupExpiredLock", func(ctx context.Context, tx storage.Tx) error {
		now := e.now()
		lock, err := tx.GetLock(ctx, bountyID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !lock.Expired(now) {
			return nil
		}
		voted, err := tx.BountyVotedInTime(ctx, bountyID)
		if err != nil {
			return err
		}
		if voted {
			return nil
		}
		if err := e.slashLock(ctx, tx, lock, SlashReasonAbandoned, now); err != nil {
			return err
		}
		result = CleanupResult{Slashed: true, Lock: lock}
		return nil
	})
	if err != nil {
		return CleanupResult{}, err
	}
	if result.Slashed {
		e.log.Info().Uint64("bounty_id", uint64(bountyID)).Str("account", string(result.Lock.Claimant)).Msg("abandoned lock slashed")
	} else {
		e.log.Debug().Uint64("bounty_id", uint64(bountyID)).Msg("cleanup found nothing to do")
	}
	return result, nil
}

// ReleaseStake returns a lock's stake to the claimant and credits the
// verification. Owner only.
func (e *Engine) ReleaseStake(ctx context.Context, caller account.ID, bountyID bounty.ID) (bounty.Lock, error) {
	var lock bounty.Lock
	err := e.update(ctx, "ReleaseStake", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		var err error
		lock, err = getLock(ctx, tx, bountyID)
		if err != nil {
			return err
		}
		return e.releaseLock(ctx, tx, lock, e.now())
	})
	return lock, err
}

// SlashStakeForIncorrectConsensus burns a lock's stake. Owner only.
func (e *Engine) SlashStakeForIncorrectConsensus(ctx context.Context, caller account.ID, bountyID bounty.ID) (bounty.Lock, error) {
	var lock bounty.Lock
	err := e.update(ctx, "SlashStakeForIncorrectConsensus", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		var err error
		lock, err = getLock(ctx, tx, bountyID)
		if err != nil {
			return err
		}
		return e.slashLock(ctx, tx, lock, SlashReasonIncorrectConsensus, e.now())
	})
	return lock, err
}

// Lock returns the live lock of a bounty. Expired locks read as absent.
func (e *Engine) Lock(ctx context.Context, bountyID bounty.ID) (bounty.Lock, bool, error) {
	var (
		lock bounty.Lock
		live bool
	)
	err := e.view(ctx, "Lock", func(ctx context.Context, tx storage.Tx) error {
		var err error
		lock, err = tx.GetLock(ctx, bountyID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		live = !lock.Expired(e.now())
		return nil
	})
	if err != nil || !live {
		return bounty.Lock{}, false, err
	}
	return lock, true, nil
}

// ExpiredLocks returns up to limit abandoned locks, oldest first.
func (e *Engine) ExpiredLocks(ctx context.Context, limit int) ([]bounty.Lock, error) {
	if limit <= 0 {
		return nil, invalidArgument("limit must be greater than zero")
	}
	var result []bounty.Lock
	err := e.view(ctx, "ExpiredLocks", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListExpiredLocks(ctx, e.now(), limit)
		return err
	})
	return result, err
}

func getLock(ctx context.Context, tx storage.Tx, bountyID bounty.ID) (bounty.Lock, error) {
	lock, err := tx.GetLock(ctx, bountyID)
	if errors.Is(err, storage.ErrNotFound) {
		return bounty.Lock{}, bountyError(apperrors.CodeBountyNotReserved, bountyID, "bounty has no lock")
	}
	return lock, err
}

// releaseLock unstakes, credits earnings and reputation, records the claim
// and deletes the lock.
func (e *Engine) releaseLock(ctx context.Context, tx storage.Tx, lock bounty.Lock, now time.Time) error {
	if _, err := moveStake(ctx, tx, lock.Claimant, lock.StakeAsset, lock.StakeAmount, ledger.Balance.Unstake); err != nil {
		return err
	}
	acct, err := e.ensureAccount(ctx, tx, lock.Claimant, now)
	if err != nil {
		return err
	}
	acct, err = acct.Released(lock.StakeAmount, e.opts.ReputationReward, now)
	if err != nil {
		return balanceError(err, ledger.Balance{}, lock.StakeAmount)
	}
	if err := tx.PutAccount(ctx, acct); err != nil {
		return err
	}
	if err := tx.AppendClaim(ctx, lock.BountyID, bounty.Claim{Claimant: lock.Claimant, ClaimedAt: now}); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	if err := tx.DeleteLock(ctx, lock.BountyID); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, eventRecord{
		Type:      eventStakeReleased,
		BountyID:  lock.BountyID,
		AccountID: lock.Claimant,
		Payload: map[string]any{
			"stake_asset":  string(lock.StakeAsset),
			"stake_amount": lock.StakeAmount.String(),
			"reputation":   acct.ReputationScore,
		},
	}); err != nil {
		return err
	}
	e.opts.Metrics.StakeReleased(string(lock.StakeAsset))
	return nil
}

// slashLock burns the lock's stake into the treasury, lowers reputation and
// deletes the lock.
func (e *Engine) slashLock(ctx context.Context, tx storage.Tx, lock bounty.Lock, reason string, now time.Time) error {
	if _, err := moveStake(ctx, tx, lock.Claimant, lock.StakeAsset, lock.StakeAmount, ledger.Balance.Slash); err != nil {
		return err
	}
	if err := burn(ctx, tx, lock.StakeAsset, lock.StakeAmount); err != nil {
		return err
	}
	acct, err := e.ensureAccount(ctx, tx, lock.Claimant, now)
	if err != nil {
		return err
	}
	acct = acct.Slashed(e.opts.ReputationPenalty, now)
	if err := tx.PutAccount(ctx, acct); err != nil {
		return err
	}
	if err := tx.DeleteLock(ctx, lock.BountyID); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, eventRecord{
		Type:      eventStakeSlashed,
		BountyID:  lock.BountyID,
		AccountID: lock.Claimant,
		Payload: map[string]any{
			"reason":       reason,
			"stake_asset":  string(lock.StakeAsset),
			"stake_amount": lock.StakeAmount.String(),
			"reputation":   acct.ReputationScore,
		},
	}); err != nil {
		return err
	}
	e.opts.Metrics.StakeSlashed(string(lock.StakeAsset), reason)
	return nil
}
