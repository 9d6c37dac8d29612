package engine

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// VoteResult reports the pair state after a vote.
type VoteResult struct {
	Outcome audit.Outcome
	// Finalized is true when this vote crossed the threshold.
	Finalized bool
	// AlreadyFinalized is true for a late vote on a terminal pair. The vote
	// is kept for history and does not change the outcome.
	AlreadyFinalized bool
}

// FileAttestation records a positive verdict under a bounty the caller has
// reserved.
func (e *Engine) FileAttestation(ctx context.Context, caller account.ID, artifactID, auditType string, bountyID bounty.ID, metadata map[string]string) (VoteResult, error) {
	pair := audit.Pair{ArtifactID: strings.TrimSpace(artifactID), AuditType: strings.TrimSpace(auditType)}
	return e.vote(ctx, "FileAttestation", func() audit.Record {
		return audit.NewAttestation(pair, bountyID, caller, metadata, e.now())
	})
}

// FileDivergence records a negative verdict with a report under a bounty
// the caller has reserved.
func (e *Engine) FileDivergence(ctx context.Context, caller account.ID, artifactID, auditType string, bountyID bounty.ID, report string, metadata map[string]string) (VoteResult, error) {
	pair := audit.Pair{ArtifactID: strings.TrimSpace(artifactID), AuditType: strings.TrimSpace(auditType)}
	return e.vote(ctx, "FileDivergence", func() audit.Record {
		return audit.NewDivergence(pair, bountyID, caller, report, metadata, e.now())
	})
}

func (e *Engine) vote(ctx context.Context, op string, build func() audit.Record) (VoteResult, error) {
	var result VoteResult
	var rec audit.Record
	err := e.update(ctx, op, func(ctx context.Context, tx storage.Tx) error {
		rec = build()
		if err := requireCaller(rec.Auditor); err != nil {
			return err
		}
		if rec.Pair.ArtifactID == "" || rec.Pair.AuditType == "" {
			return invalidArgument("artifact id and audit type are required")
		}
		if err := e.authorizeVote(ctx, tx, rec); err != nil {
			return err
		}

		finalized, err := tx.GetOutcome(ctx, rec.Pair)
		switch {
		case err == nil:
			result, err = e.fileLateVote(ctx, tx, rec, finalized)
			return err
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		if _, err := tx.AppendAuditRecord(ctx, rec); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, eventRecord{
			Type:      eventVoteFiled,
			Pair:      rec.Pair,
			BountyID:  rec.BountyID,
			AccountID: rec.Auditor,
			Payload:   map[string]any{"kind": string(rec.Kind)},
		}); err != nil {
			return err
		}

		records, err := tx.ListAuditRecords(ctx, rec.Pair)
		if err != nil {
			return err
		}
		outcome := e.opts.Threshold.Tally(rec.Pair, records)
		result = VoteResult{Outcome: outcome}
		if !outcome.Status.Terminal() {
			return nil
		}
		outcome.FinalizedAt = rec.FiledAt
		if err := e.finalize(ctx, tx, outcome, records); err != nil {
			return err
		}
		result = VoteResult{Outcome: outcome, Finalized: true}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	e.opts.Metrics.VoteFiled(string(rec.Kind), result.AlreadyFinalized)
	event := e.log.Info()
	if result.AlreadyFinalized {
		event = e.log.Warn().Str("code", string(apperrors.CodeAlreadyFinalized))
	}
	event.
		Str("artifact_id", rec.Pair.ArtifactID).
		Str("audit_type", rec.Pair.AuditType).
		Uint64("bounty_id", uint64(rec.BountyID)).
		Str("account", string(rec.Auditor)).
		Str("kind", string(rec.Kind)).
		Str("status", string(result.Outcome.Status)).
		Int("attestations", result.Outcome.AttestationCount).
		Int("divergences", result.Outcome.DivergenceCount).
		Msg("vote filed")
	if result.Finalized {
		e.opts.Metrics.OutcomeFinalized(string(result.Outcome.Status))
		e.log.Info().Str("artifact_id", rec.Pair.ArtifactID).Str("audit_type", rec.Pair.AuditType).Str("status", string(result.Outcome.Status)).Msg("outcome finalized")
	}
	return result, nil
}

// authorizeVote requires a live lock held by the voter on a bounty that
// challenges the voted pair, and at most one vote per bounty.
func (e *Engine) authorizeVote(ctx context.Context, tx storage.Tx, rec audit.Record) error {
	b, err := getBounty(ctx, tx, rec.BountyID)
	if err != nil {
		return err
	}
	if !b.Matches(rec.Pair.ArtifactID, rec.Pair.AuditType) {
		return bountyError(apperrors.CodeBountyNotReserved, rec.BountyID, "bounty does not challenge this artifact and audit type")
	}
	lock, err := tx.GetLock(ctx, rec.BountyID)
	if errors.Is(err, storage.ErrNotFound) {
		return bountyError(apperrors.CodeBountyNotReserved, rec.BountyID, "bounty is not reserved")
	}
	if err != nil {
		return err
	}
	if !lock.HeldBy(rec.Auditor, rec.FiledAt) {
		return bountyError(apperrors.CodeBountyNotReserved, rec.BountyID, "caller does not hold a live lock on the bounty")
	}
	voted, err := tx.BountyVoted(ctx, rec.BountyID)
	if err != nil {
		return err
	}
	if voted {
		return bountyError(apperrors.CodeBountyAlreadyClaimed, rec.BountyID, "bounty already has a vote")
	}
	return nil
}

// fileLateVote keeps a vote on a terminal pair for history only. The
// voter's lock stays staked and is slashed as abandoned once it expires.
func (e *Engine) fileLateVote(ctx context.Context, tx storage.Tx, rec audit.Record, finalized audit.Outcome) (VoteResult, error) {
	rec.Late = true
	if _, err := tx.AppendAuditRecord(ctx, rec); err != nil {
		return VoteResult{}, err
	}
	if err := e.appendEvent(ctx, tx, eventRecord{
		Type:      eventVoteLate,
		Pair:      rec.Pair,
		BountyID:  rec.BountyID,
		AccountID: rec.Auditor,
		Payload:   map[string]any{"kind": string(rec.Kind), "status": string(finalized.Status)},
	}); err != nil {
		return VoteResult{}, err
	}
	return VoteResult{Outcome: finalized, AlreadyFinalized: true}, nil
}

// finalize persists the terminal outcome exactly once and settles every
// voted lock of the pair: voters that agree are released, the rest slashed.
// Locks whose holder never voted are left for CleanupExpiredLock.
func (e *Engine) finalize(ctx context.Context, tx storage.Tx, outcome audit.Outcome, records []audit.Record) error {
	if err := tx.PutOutcome(ctx, outcome); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return apperrors.Wrap(apperrors.CodeAlreadyFinalized, "pair already finalized", err)
		}
		return err
	}
	if err := e.appendEvent(ctx, tx, eventRecord{
		Type: eventOutcomeFinalized,
		Pair: outcome.Pair,
		Payload: map[string]any{
			"status":       string(outcome.Status),
			"attestations": outcome.AttestationCount,
			"divergences":  outcome.DivergenceCount,
		},
	}); err != nil {
		return err
	}

	votes := make(map[bounty.ID]audit.Record, len(records))
	for _, rec := range records {
		if !rec.Late {
			votes[rec.BountyID] = rec
		}
	}
	bounties, err := tx.ListBountiesForPair(ctx, outcome.Pair)
	if err != nil {
		return err
	}
	for _, b := range bounties {
		rec, voted := votes[b.ID]
		if !voted {
			continue
		}
		lock, err := tx.GetLock(ctx, b.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if lock.Claimant != rec.Auditor {
			continue
		}
		if audit.Agrees(rec.Kind, outcome.Status) {
			err = e.releaseLock(ctx, tx, lock, outcome.FinalizedAt)
		} else {
			err = e.slashLock(ctx, tx, lock, SlashReasonIncorrectConsensus, outcome.FinalizedAt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Outcome returns the consensus state of a pair.
func (e *Engine) Outcome(ctx context.Context, artifactID, auditType string) (audit.Outcome, error) {
	pair := audit.Pair{ArtifactID: artifactID, AuditType: auditType}
	var result audit.Outcome
	err := e.view(ctx, "Outcome", func(ctx context.Context, tx storage.Tx) error {
		finalized, err := tx.GetOutcome(ctx, pair)
		if err == nil {
			result = finalized
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		records, err := tx.ListAuditRecords(ctx, pair)
		if err != nil {
			return err
		}
		result = e.opts.Threshold.Tally(pair, records)
		return nil
	})
	return result, err
}

// IsVerified reports whether at least one audit type of the artifact is
// Verified and none is Rejected.
func (e *Engine) IsVerified(ctx context.Context, artifactID string) (bool, error) {
	var verified bool
	err := e.view(ctx, "IsVerified", func(ctx context.Context, tx storage.Tx) error {
		outcomes, err := tx.ListOutcomesForArtifact(ctx, artifactID)
		if err != nil {
			return err
		}
		for _, outcome := range outcomes {
			switch outcome.Status {
			case audit.StatusRejected:
				verified = false
				return nil
			case audit.StatusVerified:
				verified = true
			}
		}
		return nil
	})
	return verified, err
}

// AuditRecords returns the full vote history of a pair, late votes included.
func (e *Engine) AuditRecords(ctx context.Context, artifactID, auditType string) ([]audit.Record, error) {
	var result []audit.Record
	err := e.view(ctx, "AuditRecords", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListAuditRecords(ctx, audit.Pair{ArtifactID: artifactID, AuditType: auditType})
		return err
	})
	return result, err
}
