package engine

import (
	"context"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// WithdrawResult describes a completed withdrawal.
type WithdrawResult struct {
	Balance ledger.Balance
	// Sent is what reached the caller: the withdrawn amount minus Fee.
	Sent ledger.Amount
	Fee  ledger.Amount
}

// Deposit pulls amount from the caller into custody and credits it as
// available. The caller must have approved the custody account beforehand.
// A ledger failure leaves no internal change.
func (e *Engine) Deposit(ctx context.Context, caller account.ID, asset ledger.AssetID, amount ledger.Amount) (ledger.Balance, error) {
	if err := requireCaller(caller); err != nil {
		return ledger.Balance{}, err
	}
	if asset == "" {
		return ledger.Balance{}, invalidArgument("asset is required")
	}
	if err := requirePositive(amount); err != nil {
		return ledger.Balance{}, err
	}

	var result ledger.Balance
	err := e.update(ctx, "Deposit", func(ctx context.Context, tx storage.Tx) error {
		now := e.now()
		if _, err := e.ensureAccount(ctx, tx, caller, now); err != nil {
			return err
		}
		current, err := tx.GetBalance(ctx, caller, asset)
		if err != nil {
			return err
		}
		next, err := current.Credit(amount)
		if err != nil {
			return balanceError(err, current, amount)
		}
		if err := tx.PutBalance(ctx, caller, asset, next); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, eventRecord{
			Type:      eventDeposited,
			AccountID: caller,
			Payload:   map[string]any{"asset": string(asset), "amount": amount.String()},
		}); err != nil {
			return err
		}
		if err := e.callLedger(ctx, "deposit", func(ctx context.Context) error {
			return e.payments.TransferFrom(ctx, e.opts.Custody, caller, e.opts.Custody, asset, amount)
		}); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return ledger.Balance{}, err
	}
	e.log.Info().Str("account", string(caller)).Str("asset", string(asset)).Str("amount", amount.String()).Msg("deposit credited")
	return result, nil
}

// Withdraw debits amount from available and sends it minus the ledger fee
// back to the caller.
func (e *Engine) Withdraw(ctx context.Context, caller account.ID, asset ledger.AssetID, amount ledger.Amount) (WithdrawResult, error) {
	if err := requireCaller(caller); err != nil {
		return WithdrawResult{}, err
	}
	if asset == "" {
		return WithdrawResult{}, invalidArgument("asset is required")
	}
	if err := requirePositive(amount); err != nil {
		return WithdrawResult{}, err
	}

	var result WithdrawResult
	err := e.update(ctx, "Withdraw", func(ctx context.Context, tx storage.Tx) error {
		current, err := tx.GetBalance(ctx, caller, asset)
		if err != nil {
			return err
		}
		next, err := current.Debit(amount)
		if err != nil {
			return balanceError(err, current, amount)
		}

		var fee ledger.Amount
		if err := e.callLedger(ctx, "fee", func(ctx context.Context) error {
			var feeErr error
			fee, feeErr = e.payments.Fee(ctx, asset)
			return feeErr
		}); err != nil {
			return err
		}
		if !fee.Less(amount) {
			return apperrors.WithMetadata(apperrors.CodeAmountBelowFee, "amount does not cover the transfer fee", map[string]string{
				"Fee": fee.String(),
			})
		}
		sent, err := amount.Sub(fee)
		if err != nil {
			return err
		}

		if err := tx.PutBalance(ctx, caller, asset, next); err != nil {
			return err
		}
		if err := e.appendEvent(ctx, tx, eventRecord{
			Type:      eventWithdrawn,
			AccountID: caller,
			Payload:   map[string]any{"asset": string(asset), "amount": amount.String(), "fee": fee.String()},
		}); err != nil {
			return err
		}
		if err := e.callLedger(ctx, "withdraw", func(ctx context.Context) error {
			return e.payments.Transfer(ctx, e.opts.Custody, caller, asset, sent)
		}); err != nil {
			return err
		}
		result = WithdrawResult{Balance: next, Sent: sent, Fee: fee}
		return nil
	})
	if err != nil {
		return WithdrawResult{}, err
	}
	e.log.Info().Str("account", string(caller)).Str("asset", string(asset)).Str("amount", amount.String()).Str("fee", result.Fee.String()).Msg("withdrawal sent")
	return result, nil
}

// Balance returns one bucket of an account. Unknown accounts read as zero.
func (e *Engine) Balance(ctx context.Context, acct account.ID, asset ledger.AssetID) (ledger.Balance, error) {
	var result ledger.Balance
	err := e.view(ctx, "Balance", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.GetBalance(ctx, acct, asset)
		return err
	})
	return result, err
}

// Balances returns every bucket of an account.
func (e *Engine) Balances(ctx context.Context, acct account.ID) ([]storage.AssetBalance, error) {
	var result []storage.AssetBalance
	err := e.view(ctx, "Balances", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListBalances(ctx, acct)
		return err
	})
	return result, err
}

// Treasury returns the slashed totals per asset.
func (e *Engine) Treasury(ctx context.Context) ([]storage.AssetTotal, error) {
	var result []storage.AssetTotal
	err := e.view(ctx, "Treasury", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListSlashed(ctx)
		return err
	})
	return result, err
}

// Account returns a verifier's profile.
func (e *Engine) Account(ctx context.Context, acct account.ID) (account.Account, error) {
	var result account.Account
	err := e.view(ctx, "Account", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.GetAccount(ctx, acct)
		return err
	})
	if err != nil {
		return account.Account{}, err
	}
	return result, nil
}

// moveStake applies one balance transition to the account's bucket for
// asset and persists it.
func moveStake(ctx context.Context, tx storage.Tx, acct account.ID, asset ledger.AssetID, amount ledger.Amount, op func(ledger.Balance, ledger.Amount) (ledger.Balance, error)) (ledger.Balance, error) {
	current, err := tx.GetBalance(ctx, acct, asset)
	if err != nil {
		return ledger.Balance{}, err
	}
	next, err := op(current, amount)
	if err != nil {
		return ledger.Balance{}, balanceError(err, current, amount)
	}
	if err := tx.PutBalance(ctx, acct, asset, next); err != nil {
		return ledger.Balance{}, err
	}
	return next, nil
}

// burn moves slashed stake into the treasury total.
func burn(ctx context.Context, tx storage.Tx, asset ledger.AssetID, amount ledger.Amount) error {
	total, err := tx.GetSlashed(ctx, asset)
	if err != nil {
		return err
	}
	next, err := total.Add(amount)
	if err != nil {
		return balanceError(err, ledger.Balance{}, amount)
	}
	return tx.PutSlashed(ctx, asset, next)
}
