// Package ledger holds the per-account, per-asset balance arithmetic of the
// verifier engine.
//
// A Balance splits funds into an available bucket (free to withdraw or
// stake) and a staked bucket (collateral behind a bounty lock). Every
// operation returns a new value and never mutates its receiver, so callers
// can compute a tentative state, perform an outbound transfer, and only then
// persist it.
//
// The total (available + staked) changes only through Credit (deposit),
// Debit (withdrawal) and Slash; Stake and Unstake move funds between the
// buckets.
package ledger
