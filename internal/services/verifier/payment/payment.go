// Package payment defines the external token ledger the verifier engine
// orchestrates transfers against. The engine never holds keys; it only names
// accounts.
package payment

import (
	"context"
	"errors"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

var (
	// ErrInsufficientFunds reports a source account that cannot cover the
	// amount plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAllowance reports a pull larger than the approval.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrUnknownAsset reports an asset the ledger does not serve.
	ErrUnknownAsset = errors.New("unknown asset")
)

// Ledger is the payment ledger collaborator.
type Ledger interface {
	// Transfer moves amount from one account to another. The ledger fee is
	// charged to the sender on top of amount.
	Transfer(ctx context.Context, from, to account.ID, asset ledger.AssetID, amount ledger.Amount) error
	// TransferFrom pulls amount from owner to recipient on behalf of spender,
	// consuming a prior approval of at least amount plus fee.
	TransferFrom(ctx context.Context, spender, owner, recipient account.ID, asset ledger.AssetID, amount ledger.Amount) error
	// Fee returns the per-transfer fee for asset.
	Fee(ctx context.Context, asset ledger.AssetID) (ledger.Amount, error)
	// BalanceOf returns the ledger balance of an account.
	BalanceOf(ctx context.Context, owner account.ID, asset ledger.AssetID) (ledger.Amount, error)
}

// Faucet is implemented by ledgers that can issue funds and approvals
// locally, such as the in-process ledger. Production ledgers do not.
type Faucet interface {
	// Mint credits owner with newly issued funds.
	Mint(owner account.ID, asset ledger.AssetID, amount ledger.Amount) error
	// Approve sets the amount spender may pull from owner.
	Approve(owner, spender account.ID, asset ledger.AssetID, amount ledger.Amount) error
}
