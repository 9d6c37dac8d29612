package domain

import (
	"context"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/apikey"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// LedgerService moves funds between the payment ledger and internal balances.
type LedgerService interface {
	Deposit(ctx context.Context, caller account.ID, asset ledger.AssetID, amount ledger.Amount) (ledger.Balance, error)
	Withdraw(ctx context.Context, caller account.ID, asset ledger.AssetID, amount ledger.Amount) (engine.WithdrawResult, error)
	Balance(ctx context.Context, acct account.ID, asset ledger.AssetID) (ledger.Balance, error)
	Balances(ctx context.Context, acct account.ID) ([]storage.AssetBalance, error)
	Account(ctx context.Context, acct account.ID) (account.Account, error)
	Treasury(ctx context.Context) ([]storage.AssetTotal, error)
}

// FaucetService issues funds and custody approvals on a local ledger.
type FaucetService interface {
	LedgerMint(ctx context.Context, caller, acct account.ID, asset ledger.AssetID, amount ledger.Amount) (ledger.Amount, error)
	LedgerApprove(ctx context.Context, caller, acct account.ID, asset ledger.AssetID, amount ledger.Amount) error
}

// BountyService manages stake requirements, bounties and reservations.
type BountyService interface {
	SetStakeRequirement(ctx context.Context, caller account.ID, auditType string, asset ledger.AssetID, amount ledger.Amount) (bounty.StakeRequirement, error)
	StakeRequirement(ctx context.Context, auditType string) (bounty.StakeRequirement, bool, error)
	StakeRequirements(ctx context.Context) ([]bounty.StakeRequirement, error)
	CreateBounty(ctx context.Context, caller account.ID, input engine.CreateBountyInput) (bounty.Bounty, error)
	Bounty(ctx context.Context, bountyID bounty.ID) (bounty.Bounty, error)
	BountiesForArtifact(ctx context.Context, artifactID, auditType string) ([]bounty.Bounty, error)
	ReserveBounty(ctx context.Context, caller account.ID, bountyID bounty.ID, auditType string) (bounty.Lock, error)
	ReserveBountyWithAPIKey(ctx context.Context, key string, bountyID bounty.ID, auditType string) (bounty.Lock, error)
	Lock(ctx context.Context, bountyID bounty.ID) (bounty.Lock, bool, error)
	CleanupExpiredLock(ctx context.Context, bountyID bounty.ID) (engine.CleanupResult, error)
	ReleaseStake(ctx context.Context, caller account.ID, bountyID bounty.ID) (bounty.Lock, error)
	SlashStakeForIncorrectConsensus(ctx context.Context, caller account.ID, bountyID bounty.ID) (bounty.Lock, error)
}

// ConsensusService files verdicts and reads outcomes.
type ConsensusService interface {
	FileAttestation(ctx context.Context, caller account.ID, artifactID, auditType string, bountyID bounty.ID, metadata map[string]string) (engine.VoteResult, error)
	FileDivergence(ctx context.Context, caller account.ID, artifactID, auditType string, bountyID bounty.ID, report string, metadata map[string]string) (engine.VoteResult, error)
	Outcome(ctx context.Context, artifactID, auditType string) (audit.Outcome, error)
	IsVerified(ctx context.Context, artifactID string) (bool, error)
	AuditRecords(ctx context.Context, artifactID, auditType string) ([]audit.Record, error)
}

// AdminService covers api keys, ownership and the event trail.
type AdminService interface {
	GenerateAPIKey(ctx context.Context, caller account.ID) (string, apikey.Key, error)
	RevokeAPIKey(ctx context.Context, caller account.ID, plaintext string) (apikey.Key, error)
	APIKeys(ctx context.Context, caller account.ID) ([]apikey.Key, error)
	Owner(ctx context.Context) (account.ID, error)
	TransferOwnership(ctx context.Context, caller, newOwner account.ID) error
	Events(ctx context.Context, pageToken string, pageSize int) (engine.EventPage, error)
}

// Verifier is everything the MCP surface needs from the engine.
type Verifier interface {
	LedgerService
	FaucetService
	BountyService
	ConsensusService
	AdminService
}

var _ Verifier = (*engine.Engine)(nil)
