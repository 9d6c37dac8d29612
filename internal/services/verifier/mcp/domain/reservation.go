package domain

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
)

// LockResult represents a bounty reservation.
type LockResult struct {
	BountyID    uint64 `json:"bounty_id" jsonschema:"reserved bounty"`
	Claimant    string `json:"claimant" jsonschema:"account holding the reservation"`
	StakeAsset  string `json:"stake_asset" jsonschema:"asset of the locked stake"`
	StakeAmount string `json:"stake_amount" jsonschema:"base-10 locked stake"`
	LockedAt    string `json:"locked_at" jsonschema:"RFC3339 reservation timestamp"`
	ExpiresAt   string `json:"expires_at" jsonschema:"RFC3339 instant after which the lock is abandoned"`
}

func lockResult(lock bounty.Lock) LockResult {
	return LockResult{
		BountyID:    uint64(lock.BountyID),
		Claimant:    string(lock.Claimant),
		StakeAsset:  string(lock.StakeAsset),
		StakeAmount: lock.StakeAmount.String(),
		LockedAt:    formatTime(lock.LockedAt),
		ExpiresAt:   formatTime(lock.ExpiresAt),
	}
}

// BountyReserveInput represents the MCP tool input for reserving a bounty.
// Exactly one of caller and api_key identifies the verifier.
type BountyReserveInput struct {
	Caller    string `json:"caller,omitempty" jsonschema:"authenticated verifier account"`
	APIKey    string `json:"api_key,omitempty" jsonschema:"verifier api key, used instead of caller"`
	BountyID  uint64 `json:"bounty_id" jsonschema:"bounty to reserve"`
	AuditType string `json:"audit_type" jsonschema:"audit type the verifier will perform"`
}

// BountyReserveTool defines the MCP tool schema for reserving a bounty.
func BountyReserveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "bounty_reserve",
		Description: "Locks a bounty for the verifier by staking the configured requirement. The lock is exclusive until it expires.",
	}
}

// BountyReserveHandler reserves a bounty.
func BountyReserveHandler(svc BountyService) mcp.ToolHandlerFor[BountyReserveInput, LockResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BountyReserveInput) (*mcp.CallToolResult, LockResult, error) {
		const action = "bounty reserve"
		caller := strings.TrimSpace(input.Caller)
		key := strings.TrimSpace(input.APIKey)
		if (caller == "") == (key == "") {
			return nil, LockResult{}, invalidInput(action, "exactly one of caller and api_key is required")
		}

		var (
			lock bounty.Lock
			err  error
		)
		if key != "" {
			lock, err = svc.ReserveBountyWithAPIKey(ctx, key, bounty.ID(input.BountyID), input.AuditType)
		} else {
			lock, err = svc.ReserveBounty(ctx, accountID(caller), bounty.ID(input.BountyID), input.AuditType)
		}
		if err != nil {
			return nil, LockResult{}, toolError(action, err)
		}
		return nil, lockResult(lock), nil
	}
}

// LockGetInput represents the MCP tool input for reading a lock.
type LockGetInput struct {
	BountyID uint64 `json:"bounty_id" jsonschema:"bounty identifier"`
}

// LockGetResult reports the live lock of a bounty, if any.
type LockGetResult struct {
	Locked bool        `json:"locked" jsonschema:"true while an unexpired lock exists"`
	Lock   *LockResult `json:"lock,omitempty" jsonschema:"the live lock"`
}

// LockGetTool defines the MCP tool schema for reading a lock.
func LockGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lock_get",
		Description: "Returns the live reservation of a bounty. Expired locks read as unlocked.",
	}
}

// LockGetHandler reads a lock.
func LockGetHandler(svc BountyService) mcp.ToolHandlerFor[LockGetInput, LockGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LockGetInput) (*mcp.CallToolResult, LockGetResult, error) {
		lock, live, err := svc.Lock(ctx, bounty.ID(input.BountyID))
		if err != nil {
			return nil, LockGetResult{}, toolError("lock get", err)
		}
		if !live {
			return nil, LockGetResult{}, nil
		}
		result := lockResult(lock)
		return nil, LockGetResult{Locked: true, Lock: &result}, nil
	}
}

// LockCleanupInput represents the MCP tool input for cleaning up a lock.
type LockCleanupInput struct {
	BountyID uint64 `json:"bounty_id" jsonschema:"bounty identifier"`
}

// LockCleanupResult reports whether an abandoned lock was slashed.
type LockCleanupResult struct {
	Slashed bool        `json:"slashed" jsonschema:"false when there was nothing to clean up"`
	Lock    *LockResult `json:"lock,omitempty" jsonschema:"the slashed lock"`
}

// LockCleanupTool defines the MCP tool schema for cleaning up a lock.
func LockCleanupTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lock_cleanup",
		Description: "Slashes a bounty's lock if it expired without a verdict. Anyone may call it; it is a no-op otherwise.",
	}
}

// LockCleanupHandler cleans up an abandoned lock.
func LockCleanupHandler(svc BountyService) mcp.ToolHandlerFor[LockCleanupInput, LockCleanupResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LockCleanupInput) (*mcp.CallToolResult, LockCleanupResult, error) {
		cleaned, err := svc.CleanupExpiredLock(ctx, bounty.ID(input.BountyID))
		if err != nil {
			return nil, LockCleanupResult{}, toolError("lock cleanup", err)
		}
		if !cleaned.Slashed {
			return nil, LockCleanupResult{}, nil
		}
		result := lockResult(cleaned.Lock)
		return nil, LockCleanupResult{Slashed: true, Lock: &result}, nil
	}
}

// StakeSettleInput represents the MCP tool input for releasing or slashing
// a lock by hand.
type StakeSettleInput struct {
	Caller   string `json:"caller" jsonschema:"owner account"`
	BountyID uint64 `json:"bounty_id" jsonschema:"bounty whose lock is settled"`
}

// StakeReleaseTool defines the MCP tool schema for releasing stake.
func StakeReleaseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stake_release",
		Description: "Returns a lock's stake to its claimant and credits the verification. Owner only.",
	}
}

// StakeReleaseHandler releases a lock.
func StakeReleaseHandler(svc BountyService) mcp.ToolHandlerFor[StakeSettleInput, LockResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StakeSettleInput) (*mcp.CallToolResult, LockResult, error) {
		caller, err := requireCaller("stake release", input.Caller)
		if err != nil {
			return nil, LockResult{}, err
		}
		lock, err := svc.ReleaseStake(ctx, caller, bounty.ID(input.BountyID))
		if err != nil {
			return nil, LockResult{}, toolError("stake release", err)
		}
		return nil, lockResult(lock), nil
	}
}

// StakeSlashTool defines the MCP tool schema for slashing stake.
func StakeSlashTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stake_slash",
		Description: "Burns a lock's stake into the treasury and lowers the claimant's reputation. Owner only.",
	}
}

// StakeSlashHandler slashes a lock.
func StakeSlashHandler(svc BountyService) mcp.ToolHandlerFor[StakeSettleInput, LockResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StakeSettleInput) (*mcp.CallToolResult, LockResult, error) {
		caller, err := requireCaller("stake slash", input.Caller)
		if err != nil {
			return nil, LockResult{}, err
		}
		lock, err := svc.SlashStakeForIncorrectConsensus(ctx, caller, bounty.ID(input.BountyID))
		if err != nil {
			return nil, LockResult{}, toolError("stake slash", err)
		}
		return nil, lockResult(lock), nil
	}
}
