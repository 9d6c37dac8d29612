package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// CreateBountyInput describes a bounty whose reward the escrow collaborator
// has already secured.
type CreateBountyInput struct {
	Challenge    bounty.ChallengeParameters
	RewardAsset  ledger.AssetID
	RewardAmount ledger.Amount
	// TimeoutAt is optional. A zero value never expires.
	TimeoutAt time.Time
}

// CreateBounty records a new bounty. The caller must be the owner or a
// configured escrow account.
func (e *Engine) CreateBounty(ctx context.Context, caller account.ID, input CreateBountyInput) (bounty.Bounty, error) {
	if err := input.Challenge.Validate(); err != nil {
		return bounty.Bounty{}, invalidArgument(err.Error())
	}
	if strings.TrimSpace(string(input.RewardAsset)) == "" {
		return bounty.Bounty{}, invalidArgument("reward asset is required")
	}
	if err := requirePositive(input.RewardAmount); err != nil {
		return bounty.Bounty{}, err
	}

	var created bounty.Bounty
	err := e.update(ctx, "CreateBounty", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireEscrow(ctx, tx, caller); err != nil {
			return err
		}
		now := e.now()
		if !input.TimeoutAt.IsZero() && !input.TimeoutAt.After(now) {
			return invalidArgument("timeout must be in the future")
		}
		created = bounty.Bounty{
			Creator:      caller,
			Challenge:    input.Challenge,
			RewardAsset:  input.RewardAsset,
			RewardAmount: input.RewardAmount,
			TimeoutAt:    input.TimeoutAt,
			CreatedAt:    now,
		}
		bountyID, err := tx.CreateBounty(ctx, created)
		if err != nil {
			return err
		}
		created.ID = bountyID
		return e.appendEvent(ctx, tx, eventRecord{
			Type:      eventBountyCreated,
			Pair:      pairOf(created),
			BountyID:  bountyID,
			AccountID: caller,
			Payload:   map[string]any{"reward_asset": string(created.RewardAsset), "reward_amount": created.RewardAmount.String()},
		})
	})
	if err != nil {
		return bounty.Bounty{}, err
	}
	e.log.Info().Uint64("bounty_id", uint64(created.ID)).Str("artifact_id", created.Challenge.ArtifactHash).Str("audit_type", created.Challenge.AuditType).Msg("bounty created")
	return created, nil
}

func (e *Engine) requireEscrow(ctx context.Context, tx storage.Tx, caller account.ID) error {
	if _, ok := e.escrow[caller]; ok && caller != "" {
		return nil
	}
	return e.requireOwner(ctx, tx, caller)
}

// Bounty returns one bounty with its claims.
func (e *Engine) Bounty(ctx context.Context, bountyID bounty.ID) (bounty.Bounty, error) {
	var result bounty.Bounty
	err := e.view(ctx, "Bounty", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = getBounty(ctx, tx, bountyID)
		return err
	})
	return result, err
}

// BountiesForArtifact lists the bounties that challenge one pair.
func (e *Engine) BountiesForArtifact(ctx context.Context, artifactID, auditType string) ([]bounty.Bounty, error) {
	var result []bounty.Bounty
	err := e.view(ctx, "BountiesForArtifact", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListBountiesForPair(ctx, audit.Pair{ArtifactID: artifactID, AuditType: auditType})
		return err
	})
	return result, err
}

func getBounty(ctx context.Context, tx storage.Tx, bountyID bounty.ID) (bounty.Bounty, error) {
	b, err := tx.GetBounty(ctx, bountyID)
	if errors.Is(err, storage.ErrNotFound) {
		return bounty.Bounty{}, bountyError(apperrors.CodeBountyNotFound, bountyID, "bounty not found")
	}
	return b, err
}

func pairOf(b bounty.Bounty) audit.Pair {
	return audit.Pair{ArtifactID: b.Challenge.ArtifactHash, AuditType: b.Challenge.AuditType}
}
