package domain

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
)

// RequirementResult is the stake required to reserve bounties of an audit type.
type RequirementResult struct {
	AuditType string `json:"audit_type" jsonschema:"audit type identifier"`
	Asset     string `json:"asset" jsonschema:"asset the stake is held in"`
	Amount    string `json:"amount" jsonschema:"base-10 stake amount"`
	UpdatedAt string `json:"updated_at" jsonschema:"RFC3339 timestamp of the last change"`
}

func requirementResult(req bounty.StakeRequirement) RequirementResult {
	return RequirementResult{
		AuditType: req.AuditType,
		Asset:     string(req.Asset),
		Amount:    req.Amount.String(),
		UpdatedAt: formatTime(req.UpdatedAt),
	}
}

// StakeRequirementSetInput represents the MCP tool input for setting a requirement.
type StakeRequirementSetInput struct {
	Caller    string `json:"caller" jsonschema:"owner account"`
	AuditType string `json:"audit_type" jsonschema:"audit type identifier"`
	Asset     string `json:"asset" jsonschema:"asset the stake is held in"`
	Amount    string `json:"amount" jsonschema:"base-10 stake amount, greater than zero"`
}

// StakeRequirementSetTool defines the MCP tool schema for setting a requirement.
func StakeRequirementSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stake_requirement_set",
		Description: "Sets or replaces the stake required per reservation for an audit type. Owner only; existing locks keep their stake.",
	}
}

// StakeRequirementSetHandler sets a requirement.
func StakeRequirementSetHandler(svc BountyService) mcp.ToolHandlerFor[StakeRequirementSetInput, RequirementResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StakeRequirementSetInput) (*mcp.CallToolResult, RequirementResult, error) {
		const action = "stake requirement set"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, RequirementResult{}, err
		}
		amount, err := parseAmount(action, "amount", input.Amount)
		if err != nil {
			return nil, RequirementResult{}, err
		}
		req, err := svc.SetStakeRequirement(ctx, caller, input.AuditType, ledger.AssetID(strings.TrimSpace(input.Asset)), amount)
		if err != nil {
			return nil, RequirementResult{}, toolError(action, err)
		}
		return nil, requirementResult(req), nil
	}
}

// StakeRequirementGetInput represents the MCP tool input for reading a requirement.
type StakeRequirementGetInput struct {
	AuditType string `json:"audit_type" jsonschema:"audit type identifier"`
}

// StakeRequirementGetResult reports the requirement of one audit type.
type StakeRequirementGetResult struct {
	Configured  bool               `json:"configured" jsonschema:"false when bounties of this type cannot be reserved"`
	Requirement *RequirementResult `json:"requirement,omitempty" jsonschema:"the configured requirement"`
}

// StakeRequirementGetTool defines the MCP tool schema for reading a requirement.
func StakeRequirementGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stake_requirement_get",
		Description: "Returns the stake required to reserve bounties of an audit type.",
	}
}

// StakeRequirementGetHandler reads a requirement.
func StakeRequirementGetHandler(svc BountyService) mcp.ToolHandlerFor[StakeRequirementGetInput, StakeRequirementGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StakeRequirementGetInput) (*mcp.CallToolResult, StakeRequirementGetResult, error) {
		req, found, err := svc.StakeRequirement(ctx, input.AuditType)
		if err != nil {
			return nil, StakeRequirementGetResult{}, toolError("stake requirement get", err)
		}
		if !found {
			return nil, StakeRequirementGetResult{}, nil
		}
		result := requirementResult(req)
		return nil, StakeRequirementGetResult{Configured: true, Requirement: &result}, nil
	}
}

// StakeRequirementListInput takes no arguments.
type StakeRequirementListInput struct{}

// StakeRequirementListResult lists every configured requirement.
type StakeRequirementListResult struct {
	Requirements []RequirementResult `json:"requirements" jsonschema:"configured stake requirements"`
}

// StakeRequirementListTool defines the MCP tool schema for listing requirements.
func StakeRequirementListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stake_requirement_list",
		Description: "Lists the stake required for every configured audit type.",
	}
}

// StakeRequirementListHandler lists requirements.
func StakeRequirementListHandler(svc BountyService) mcp.ToolHandlerFor[StakeRequirementListInput, StakeRequirementListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ StakeRequirementListInput) (*mcp.CallToolResult, StakeRequirementListResult, error) {
		reqs, err := svc.StakeRequirements(ctx)
		if err != nil {
			return nil, StakeRequirementListResult{}, toolError("stake requirement list", err)
		}
		result := StakeRequirementListResult{Requirements: make([]RequirementResult, 0, len(reqs))}
		for _, req := range reqs {
			result.Requirements = append(result.Requirements, requirementResult(req))
		}
		return nil, result, nil
	}
}

// ClaimResult is one successful verification recorded on a bounty.
type ClaimResult struct {
	Claimant  string `json:"claimant" jsonschema:"account credited with the verification"`
	ClaimedAt string `json:"claimed_at" jsonschema:"RFC3339 timestamp of the release"`
}

// BountyResult represents a bounty.
type BountyResult struct {
	ID           uint64            `json:"id" jsonschema:"bounty identifier"`
	Creator      string            `json:"creator" jsonschema:"account that created the bounty"`
	ArtifactHash string            `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string            `json:"audit_type" jsonschema:"audit type identifier"`
	Extra        map[string]string `json:"extra,omitempty" jsonschema:"free-form challenge parameters"`
	RewardAsset  string            `json:"reward_asset" jsonschema:"asset of the reward"`
	RewardAmount string            `json:"reward_amount" jsonschema:"base-10 reward amount"`
	TimeoutAt    string            `json:"timeout_at,omitempty" jsonschema:"RFC3339 deadline for reservations, if any"`
	CreatedAt    string            `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
	Claims       []ClaimResult     `json:"claims" jsonschema:"released verifications"`
}

func bountyResult(b bounty.Bounty) BountyResult {
	result := BountyResult{
		ID:           uint64(b.ID),
		Creator:      string(b.Creator),
		ArtifactHash: b.Challenge.ArtifactHash,
		AuditType:    b.Challenge.AuditType,
		Extra:        b.Challenge.Extra,
		RewardAsset:  string(b.RewardAsset),
		RewardAmount: b.RewardAmount.String(),
		TimeoutAt:    formatTime(b.TimeoutAt),
		CreatedAt:    formatTime(b.CreatedAt),
		Claims:       make([]ClaimResult, 0, len(b.Claims)),
	}
	for _, claim := range b.Claims {
		result.Claims = append(result.Claims, ClaimResult{Claimant: string(claim.Claimant), ClaimedAt: formatTime(claim.ClaimedAt)})
	}
	return result
}

// BountyCreateInput represents the MCP tool input for creating a bounty.
type BountyCreateInput struct {
	Caller       string            `json:"caller" jsonschema:"owner or escrow account"`
	ArtifactHash string            `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string            `json:"audit_type" jsonschema:"audit type identifier"`
	Extra        map[string]string `json:"extra,omitempty" jsonschema:"free-form challenge parameters"`
	RewardAsset  string            `json:"reward_asset" jsonschema:"asset of the reward"`
	RewardAmount string            `json:"reward_amount" jsonschema:"base-10 reward amount"`
	TimeoutAt    string            `json:"timeout_at,omitempty" jsonschema:"optional RFC3339 deadline for reservations"`
}

// BountyCreateTool defines the MCP tool schema for creating a bounty.
func BountyCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "bounty_create",
		Description: "Creates a bounty challenging an artifact under an audit type. Owner or escrow accounts only.",
	}
}

// BountyCreateHandler creates a bounty.
func BountyCreateHandler(svc BountyService) mcp.ToolHandlerFor[BountyCreateInput, BountyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BountyCreateInput) (*mcp.CallToolResult, BountyResult, error) {
		const action = "bounty create"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, BountyResult{}, err
		}
		reward, err := parseAmount(action, "reward_amount", input.RewardAmount)
		if err != nil {
			return nil, BountyResult{}, err
		}
		timeoutAt, err := parseOptionalTime(action, "timeout_at", input.TimeoutAt)
		if err != nil {
			return nil, BountyResult{}, err
		}
		b, err := svc.CreateBounty(ctx, caller, engine.CreateBountyInput{
			Challenge: bounty.ChallengeParameters{
				ArtifactHash: input.ArtifactHash,
				AuditType:    input.AuditType,
				Extra:        input.Extra,
			},
			RewardAsset:  ledger.AssetID(strings.TrimSpace(input.RewardAsset)),
			RewardAmount: reward,
			TimeoutAt:    timeoutAt,
		})
		if err != nil {
			return nil, BountyResult{}, toolError(action, err)
		}
		return nil, bountyResult(b), nil
	}
}

// BountyGetInput represents the MCP tool input for reading a bounty.
type BountyGetInput struct {
	BountyID uint64 `json:"bounty_id" jsonschema:"bounty identifier"`
}

// BountyGetTool defines the MCP tool schema for reading a bounty.
func BountyGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "bounty_get",
		Description: "Returns a bounty and its released verifications.",
	}
}

// BountyGetHandler reads a bounty.
func BountyGetHandler(svc BountyService) mcp.ToolHandlerFor[BountyGetInput, BountyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BountyGetInput) (*mcp.CallToolResult, BountyResult, error) {
		b, err := svc.Bounty(ctx, bounty.ID(input.BountyID))
		if err != nil {
			return nil, BountyResult{}, toolError("bounty get", err)
		}
		return nil, bountyResult(b), nil
	}
}

// BountyListInput represents the MCP tool input for listing bounties.
type BountyListInput struct {
	ArtifactHash string `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string `json:"audit_type" jsonschema:"audit type identifier"`
}

// BountyListResult lists bounties of one artifact and audit type.
type BountyListResult struct {
	Bounties []BountyResult `json:"bounties" jsonschema:"bounties in creation order"`
}

// BountyListTool defines the MCP tool schema for listing bounties.
func BountyListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "bounty_list",
		Description: "Lists the bounties that challenge an artifact under an audit type.",
	}
}

// BountyListHandler lists bounties.
func BountyListHandler(svc BountyService) mcp.ToolHandlerFor[BountyListInput, BountyListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BountyListInput) (*mcp.CallToolResult, BountyListResult, error) {
		bounties, err := svc.BountiesForArtifact(ctx, input.ArtifactHash, input.AuditType)
		if err != nil {
			return nil, BountyListResult{}, toolError("bounty list", err)
		}
		result := BountyListResult{Bounties: make([]BountyResult, 0, len(bounties))}
		for _, b := range bounties {
			result.Bounties = append(result.Bounties, bountyResult(b))
		}
		return nil, result, nil
	}
}
