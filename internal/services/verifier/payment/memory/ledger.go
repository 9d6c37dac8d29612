// Package memory provides an in-process payment ledger for local runs and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment"
)

type balanceKey struct {
	owner account.ID
	asset ledger.AssetID
}

type allowanceKey struct {
	owner   account.ID
	spender account.ID
	asset   ledger.AssetID
}

// Ledger is a thread-safe token ledger with per-asset fees. Fees are burned.
type Ledger struct {
	mu         sync.Mutex
	fees       map[ledger.AssetID]ledger.Amount
	balances   map[balanceKey]ledger.Amount
	allowances map[allowanceKey]ledger.Amount
	failNext   error
}

// New returns a ledger serving the assets named in fees.
func New(fees map[ledger.AssetID]ledger.Amount) *Ledger {
	copied := make(map[ledger.AssetID]ledger.Amount, len(fees))
	for asset, fee := range fees {
		copied[asset] = fee
	}
	return &Ledger{
		fees:       copied,
		balances:   make(map[balanceKey]ledger.Amount),
		allowances: make(map[allowanceKey]ledger.Amount),
	}
}

// Mint credits owner out of thin air.
func (l *Ledger) Mint(owner account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.fees[asset]; !ok {
		return payment.ErrUnknownAsset
	}
	key := balanceKey{owner: owner, asset: asset}
	next, err := l.balances[key].Add(amount)
	if err != nil {
		return err
	}
	l.balances[key] = next
	return nil
}

// Approve lets spender pull up to amount from owner, replacing any prior
// approval.
func (l *Ledger) Approve(owner, spender account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.fees[asset]; !ok {
		return payment.ErrUnknownAsset
	}
	l.allowances[allowanceKey{owner: owner, spender: spender, asset: asset}] = amount
	return nil
}

// FailNext makes the next Transfer or TransferFrom return err without
// moving funds.
func (l *Ledger) FailNext(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = err
}

// Transfer implements payment.Ledger.
func (l *Ledger) Transfer(ctx context.Context, from, to account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure(); err != nil {
		return err
	}
	return l.move(from, to, asset, amount)
}

// TransferFrom implements payment.Ledger.
func (l *Ledger) TransferFrom(ctx context.Context, spender, owner, recipient account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure(); err != nil {
		return err
	}
	fee, ok := l.fees[asset]
	if !ok {
		return payment.ErrUnknownAsset
	}
	total, err := amount.Add(fee)
	if err != nil {
		return err
	}
	key := allowanceKey{owner: owner, spender: spender, asset: asset}
	remaining, err := l.allowances[key].Sub(total)
	if err != nil {
		return payment.ErrInsufficientAllowance
	}
	if err := l.move(owner, recipient, asset, amount); err != nil {
		return err
	}
	l.allowances[key] = remaining
	return nil
}

// Fee implements payment.Ledger.
func (l *Ledger) Fee(ctx context.Context, asset ledger.AssetID) (ledger.Amount, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Amount{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fee, ok := l.fees[asset]
	if !ok {
		return ledger.Amount{}, payment.ErrUnknownAsset
	}
	return fee, nil
}

// BalanceOf implements payment.Ledger.
func (l *Ledger) BalanceOf(ctx context.Context, owner account.ID, asset ledger.AssetID) (ledger.Amount, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Amount{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.fees[asset]; !ok {
		return ledger.Amount{}, payment.ErrUnknownAsset
	}
	return l.balances[balanceKey{owner: owner, asset: asset}], nil
}

func (l *Ledger) takeFailure() error {
	err := l.failNext
	l.failNext = nil
	return err
}

// move debits amount plus fee from the sender and credits amount to the
// recipient. Callers hold l.mu.
func (l *Ledger) move(from, to account.ID, asset ledger.AssetID, amount ledger.Amount) error {
	fee, ok := l.fees[asset]
	if !ok {
		return payment.ErrUnknownAsset
	}
	total, err := amount.Add(fee)
	if err != nil {
		return err
	}
	fromKey := balanceKey{owner: from, asset: asset}
	debited, err := l.balances[fromKey].Sub(total)
	if err != nil {
		return fmt.Errorf("%w: %s holds %s, needs %s", payment.ErrInsufficientFunds, from, l.balances[fromKey], total)
	}
	toKey := balanceKey{owner: to, asset: asset}
	credited, err := l.balances[toKey].Add(amount)
	if err != nil {
		return err
	}
	l.balances[fromKey] = debited
	l.balances[toKey] = credited
	return nil
}

var (
	_ payment.Ledger = (*Ledger)(nil)
	_ payment.Faucet = (*Ledger)(nil)
)
