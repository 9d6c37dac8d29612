package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientAvailable indicates the available bucket cannot cover a debit or stake.
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	// ErrInsufficientStaked indicates the staked bucket cannot cover an unstake or slash.
	ErrInsufficientStaked = errors.New("insufficient staked balance")
	// ErrZeroAmount indicates an operation was asked to move nothing.
	ErrZeroAmount = errors.New("amount must be greater than zero")
)

// AssetID names a payment asset (the ledger that custodies it).
type AssetID string

// Balance is one account's holdings of one asset.
type Balance struct {
	Available Amount
	Staked    Amount
}

// Total returns available + staked.
func (b Balance) Total() (Amount, error) {
	return b.Available.Add(b.Staked)
}

// IsZero reports whether both buckets are empty.
func (b Balance) IsZero() bool {
	return b.Available.IsZero() && b.Staked.IsZero()
}

// Credit adds a deposit to the available bucket.
func (b Balance) Credit(amount Amount) (Balance, error) {
	if amount.IsZero() {
		return b, ErrZeroAmount
	}
	available, err := b.Available.Add(amount)
	if err != nil {
		return b, err
	}
	// Guard the total as well so Total never fails on a stored balance.
	if _, err := available.Add(b.Staked); err != nil {
		return b, err
	}
	b.Available = available
	return b, nil
}

// Debit removes a withdrawal from the available bucket.
func (b Balance) Debit(amount Amount) (Balance, error) {
	if amount.IsZero() {
		return b, ErrZeroAmount
	}
	available, err := b.Available.Sub(amount)
	if err != nil {
		return b, fmt.Errorf("%w: have %s, need %s", ErrInsufficientAvailable, b.Available, amount)
	}
	b.Available = available
	return b, nil
}

// Stake moves amount from available to staked.
func (b Balance) Stake(amount Amount) (Balance, error) {
	if amount.IsZero() {
		return b, ErrZeroAmount
	}
	available, err := b.Available.Sub(amount)
	if err != nil {
		return b, fmt.Errorf("%w: have %s, need %s", ErrInsufficientAvailable, b.Available, amount)
	}
	staked, err := b.Staked.Add(amount)
	if err != nil {
		return b, err
	}
	b.Available, b.Staked = available, staked
	return b, nil
}

// Unstake moves amount from staked back to available.
func (b Balance) Unstake(amount Amount) (Balance, error) {
	if amount.IsZero() {
		return b, ErrZeroAmount
	}
	staked, err := b.Staked.Sub(amount)
	if err != nil {
		return b, fmt.Errorf("%w: have %s, need %s", ErrInsufficientStaked, b.Staked, amount)
	}
	available, err := b.Available.Add(amount)
	if err != nil {
		return b, err
	}
	b.Available, b.Staked = available, staked
	return b, nil
}

// Slash permanently removes amount from the staked bucket. Available funds
// are never touched.
func (b Balance) Slash(amount Amount) (Balance, error) {
	if amount.IsZero() {
		return b, ErrZeroAmount
	}
	staked, err := b.Staked.Sub(amount)
	if err != nil {
		return b, fmt.Errorf("%w: have %s, need %s", ErrInsufficientStaked, b.Staked, amount)
	}
	b.Staked = staked
	return b, nil
}
