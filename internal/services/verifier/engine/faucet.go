package engine

import (
	"context"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// LedgerMint issues amount of asset to acct on a ledger that supports
// local issuance. Owner only.
func (e *Engine) LedgerMint(ctx context.Context, caller, acct account.ID, asset ledger.AssetID, amount ledger.Amount) (ledger.Amount, error) {
	faucet, err := e.faucet(acct, asset, amount)
	if err != nil {
		return ledger.Amount{}, err
	}

	var held ledger.Amount
	err = e.update(ctx, "LedgerMint", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, eventRecord{
			Type:      eventLedgerMinted,
			AccountID: acct,
			Payload:   map[string]any{"asset": string(asset), "amount": amount.String()},
		}); err != nil {
			return err
		}
		return e.callLedger(ctx, "mint", func(ctx context.Context) error {
			if err := faucet.Mint(acct, asset, amount); err != nil {
				return err
			}
			var err error
			held, err = e.payments.BalanceOf(ctx, acct, asset)
			return err
		})
	})
	if err != nil {
		return ledger.Amount{}, err
	}
	e.log.Info().Str("account", string(acct)).Str("asset", string(asset)).Str("amount", amount.String()).Msg("ledger funds minted")
	return held, nil
}

// LedgerApprove lets the custody account pull up to amount of asset from
// acct, on a ledger that supports local approvals. Owner only.
func (e *Engine) LedgerApprove(ctx context.Context, caller, acct account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	faucet, err := e.faucet(acct, asset, amount)
	if err != nil {
		return err
	}

	err = e.update(ctx, "LedgerApprove", func(ctx context.Context, tx storage.Tx) error {
		if err := e.requireOwner(ctx, tx, caller); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, eventRecord{
			Type:      eventLedgerApproved,
			AccountID: acct,
			Payload:   map[string]any{"asset": string(asset), "amount": amount.String(), "spender": string(e.opts.Custody)},
		}); err != nil {
			return err
		}
		return e.callLedger(ctx, "approve", func(context.Context) error {
			return faucet.Approve(acct, e.opts.Custody, asset, amount)
		})
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("account", string(acct)).Str("asset", string(asset)).Str("amount", amount.String()).Msg("custody allowance set")
	return nil
}

func (e *Engine) faucet(acct account.ID, asset ledger.AssetID, amount ledger.Amount) (payment.Faucet, error) {
	if err := requireCaller(acct); err != nil {
		return nil, err
	}
	if asset == "" {
		return nil, invalidArgument("asset is required")
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	faucet, ok := e.payments.(payment.Faucet)
	if !ok {
		return nil, invalidArgument("payment ledger does not issue funds")
	}
	return faucet, nil
}
