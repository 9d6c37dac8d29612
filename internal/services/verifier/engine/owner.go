package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// bootstrapOwner persists the configured owner unless one is stored.
func (e *Engine) bootstrapOwner(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.Update(ctx, func(tx storage.Tx) error {
		stored, err := tx.GetSetting(ctx, settingOwner)
		if err == nil {
			if stored != string(e.opts.Owner) && e.opts.Owner != "" {
				e.log.Info().Str("owner", stored).Str("configured_owner", string(e.opts.Owner)).Msg("persisted owner overrides configuration")
			}
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if strings.TrimSpace(string(e.opts.Owner)) == "" {
			return fmt.Errorf("owner is required on first start")
		}
		return tx.PutSetting(ctx, settingOwner, string(e.opts.Owner))
	})
}

func (e *Engine) owner(ctx context.Context, tx storage.Tx) (account.ID, error) {
	stored, err := tx.GetSetting(ctx, settingOwner)
	if err != nil {
		return "", fmt.Errorf("read owner: %w", err)
	}
	return account.ID(stored), nil
}

func (e *Engine) requireOwner(ctx context.Context, tx storage.Tx, caller account.ID) error {
	owner, err := e.owner(ctx, tx)
	if err != nil {
		return err
	}
	if caller == "" || caller != owner {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// Owner returns the current owner.
func (e *Engine) Owner(ctx context.Context) (account.ID, error) {
	var owner account.ID
	err := e.view(ctx, "Owner", func(ctx context.Context, tx storage.Tx) error {
		var err error
		owner, err = e.owner(ctx, tx)
		return err
	})
	return owner, err
}

// TransferOwnership hands the admin surface to newOwner. Owner only.
func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner account.ID) error {
	if strings.TrimSpace(string(newOwner)) == "" {
		return invalidArgument("new owner is required")
	}
	return e.update(ctx, "TransferOwnership", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		if err := tx.PutSetting(ctx, settingOwner, string(newOwner)); err != nil {
			return err
		}
		e.log.Info().Str("previous_owner", string(caller)).Str("owner", string(newOwner)).Msg("ownership transferred")
		return e.appendEvent(ctx, tx, eventRecord{
			Type:      eventOwnerTransferred,
			AccountID: newOwner,
			Payload:   map[string]any{"previous_owner": string(caller)},
		})
	})
}
