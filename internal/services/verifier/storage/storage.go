// Package storage defines the persistence contracts for the verifier engine.
//
// Every engine operation runs inside exactly one Tx so that balance, lock,
// vote and outcome changes commit or roll back together. Implementations live
// in subpackages.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/apikey"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates a uniqueness constraint rejected a write.
var ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "record already exists")

// Store opens transactions over the verifier state.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn in a read-write transaction. The transaction commits
	// only when fn returns nil.
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the full set of operations available inside one transaction.
type Tx interface {
	AccountStore
	BalanceStore
	RequirementStore
	BountyStore
	LockStore
	AuditStore
	OutcomeStore
	EventStore
	APIKeyStore
	SettingsStore
	TreasuryStore
}

// AccountStore persists verifier profiles.
type AccountStore interface {
	GetAccount(ctx context.Context, id account.ID) (account.Account, error)
	PutAccount(ctx context.Context, a account.Account) error
}

// AssetBalance is one row of an account's balance sheet.
type AssetBalance struct {
	Asset   ledger.AssetID
	Balance ledger.Balance
}

// BalanceStore persists per-account, per-asset buckets. A missing row reads
// as a zero balance.
type BalanceStore interface {
	GetBalance(ctx context.Context, id account.ID, asset ledger.AssetID) (ledger.Balance, error)
	PutBalance(ctx context.Context, id account.ID, asset ledger.AssetID, balance ledger.Balance) error
	ListBalances(ctx context.Context, id account.ID) ([]AssetBalance, error)
}

// RequirementStore persists the audit type to stake mapping.
type RequirementStore interface {
	GetStakeRequirement(ctx context.Context, auditType string) (bounty.StakeRequirement, error)
	PutStakeRequirement(ctx context.Context, req bounty.StakeRequirement) error
	ListStakeRequirements(ctx context.Context) ([]bounty.StakeRequirement, error)
}

// BountyStore persists bounties and their claims.
type BountyStore interface {
	// CreateBounty assigns and returns the next bounty id.
	CreateBounty(ctx context.Context, b bounty.Bounty) (bounty.ID, error)
	GetBounty(ctx context.Context, id bounty.ID) (bounty.Bounty, error)
	ListBountiesForPair(ctx context.Context, pair audit.Pair) ([]bounty.Bounty, error)
	AppendClaim(ctx context.Context, id bounty.ID, claim bounty.Claim) error
}

// LockStore persists bounty locks. At most one row exists per bounty.
type LockStore interface {
	GetLock(ctx context.Context, id bounty.ID) (bounty.Lock, error)
	// PutLock returns ErrAlreadyExists when the bounty already has a lock row.
	PutLock(ctx context.Context, lock bounty.Lock) error
	DeleteLock(ctx context.Context, id bounty.ID) error
	// ListExpiredLocks returns abandoned locks: ExpiresAt before now and no
	// vote filed under the bounty, oldest first.
	ListExpiredLocks(ctx context.Context, now time.Time, limit int) ([]bounty.Lock, error)
}

// AuditStore persists append-only vote records.
type AuditStore interface {
	// AppendAuditRecord returns the assigned sequence number.
	AppendAuditRecord(ctx context.Context, rec audit.Record) (uint64, error)
	ListAuditRecords(ctx context.Context, pair audit.Pair) ([]audit.Record, error)
	// BountyVoted reports whether any vote was filed under the bounty.
	BountyVoted(ctx context.Context, id bounty.ID) (bool, error)
	// BountyVotedInTime reports whether a vote filed before the pair
	// finalized exists under the bounty. Late votes do not count.
	BountyVotedInTime(ctx context.Context, id bounty.ID) (bool, error)
}

// OutcomeStore persists terminal outcomes. PutOutcome returns
// ErrAlreadyExists when the pair has already finalized.
type OutcomeStore interface {
	GetOutcome(ctx context.Context, pair audit.Pair) (audit.Outcome, error)
	PutOutcome(ctx context.Context, outcome audit.Outcome) error
	ListOutcomesForArtifact(ctx context.Context, artifactID string) ([]audit.Outcome, error)
}

// Event is one row of the append-only audit trail.
type Event struct {
	Seq         uint64
	ID          string
	Type        string
	ArtifactID  string
	AuditType   string
	BountyID    bounty.ID
	AccountID   account.ID
	PayloadJSON string
	CreatedAt   time.Time
}

// EventStore persists the audit trail.
type EventStore interface {
	AppendEvent(ctx context.Context, evt Event) (uint64, error)
	// ListEvents returns up to limit events with Seq greater than afterSeq.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]Event, error)
}

// APIKeyStore persists hashed API keys.
type APIKeyStore interface {
	PutAPIKey(ctx context.Context, key apikey.Key) error
	GetAPIKey(ctx context.Context, hash string) (apikey.Key, error)
	UpdateAPIKey(ctx context.Context, key apikey.Key) error
	ListAPIKeys(ctx context.Context, owner account.ID) ([]apikey.Key, error)
}

// SettingsStore persists small named values such as the current owner.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// TreasuryStore tracks the running total of slashed stake per asset.
type TreasuryStore interface {
	GetSlashed(ctx context.Context, asset ledger.AssetID) (ledger.Amount, error)
	PutSlashed(ctx context.Context, asset ledger.AssetID, total ledger.Amount) error
	ListSlashed(ctx context.Context) ([]AssetTotal, error)
}

// AssetTotal is a per-asset amount.
type AssetTotal struct {
	Asset  ledger.AssetID
	Amount ledger.Amount
}
