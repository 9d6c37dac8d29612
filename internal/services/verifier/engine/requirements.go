package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// SetStakeRequirement replaces the stake required for auditType. Owner only.
func (e *Engine) SetStakeRequirement(ctx context.Context, caller account.ID, auditType string, asset ledger.AssetID, amount ledger.Amount) (bounty.StakeRequirement, error) {
	req := bounty.StakeRequirement{
		AuditType: strings.TrimSpace(auditType),
		Asset:     asset,
		Amount:    amount,
	}
	if err := req.Validate(); err != nil {
		return bounty.StakeRequirement{}, invalidArgument(err.Error())
	}

	err := e.update(ctx, "SetStakeRequirement", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		req.UpdatedAt = e.now()
		if err := tx.PutStakeRequirement(ctx, req); err != nil {
			return err
		}
		return e.appendEvent(ctx, tx, eventRecord{
			Type:      eventRequirementSet,
			AccountID: caller,
			Payload:   map[string]any{"audit_type": req.AuditType, "asset": string(req.Asset), "amount": req.Amount.String()},
		})
	})
	if err != nil {
		return bounty.StakeRequirement{}, err
	}
	return req, nil
}

// StakeRequirement returns the requirement for auditType and whether one is
// configured.
func (e *Engine) StakeRequirement(ctx context.Context, auditType string) (bounty.StakeRequirement, bool, error) {
	var (
		req   bounty.StakeRequirement
		found bool
	)
	err := e.view(ctx, "StakeRequirement", func(ctx context.Context, tx storage.Tx) error {
		var err error
		req, err = tx.GetStakeRequirement(ctx, auditType)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return req, found, err
}

// StakeRequirements lists every configured requirement.
func (e *Engine) StakeRequirements(ctx context.Context) ([]bounty.StakeRequirement, error) {
	var result []bounty.StakeRequirement
	err := e.view(ctx, "StakeRequirements", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListStakeRequirements(ctx)
		return err
	})
	return result, err
}
