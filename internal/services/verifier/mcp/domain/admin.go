package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/apikey"
)

// APIKeyResult describes a key without its secret.
type APIKeyResult struct {
	Hint      string `json:"hint" jsonschema:"recognizable suffix of the key"`
	Owner     string `json:"owner" jsonschema:"account the key acts for"`
	Active    bool   `json:"active" jsonschema:"false once revoked"`
	CreatedAt string `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
	RevokedAt string `json:"revoked_at,omitempty" jsonschema:"RFC3339 revocation timestamp"`
}

func apiKeyResult(key apikey.Key) APIKeyResult {
	return APIKeyResult{
		Hint:      key.Hint,
		Owner:     string(key.Owner),
		Active:    key.Active,
		CreatedAt: formatTime(key.CreatedAt),
		RevokedAt: formatTime(key.RevokedAt),
	}
}

// APIKeyGenerateInput represents the MCP tool input for issuing a key.
type APIKeyGenerateInput struct {
	Caller string `json:"caller" jsonschema:"account the key will act for"`
}

// APIKeyGenerateResult carries the only copy of the secret.
type APIKeyGenerateResult struct {
	APIKey string       `json:"api_key" jsonschema:"secret key; shown once"`
	Key    APIKeyResult `json:"key" jsonschema:"stored key details"`
}

// APIKeyGenerateTool defines the MCP tool schema for issuing a key.
func APIKeyGenerateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "api_key_generate",
		Description: "Issues an API key that can reserve bounties for the caller. The secret is returned once.",
	}
}

// APIKeyGenerateHandler issues a key.
func APIKeyGenerateHandler(svc AdminService) mcp.ToolHandlerFor[APIKeyGenerateInput, APIKeyGenerateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input APIKeyGenerateInput) (*mcp.CallToolResult, APIKeyGenerateResult, error) {
		caller, err := requireCaller("api key generate", input.Caller)
		if err != nil {
			return nil, APIKeyGenerateResult{}, err
		}
		plaintext, key, err := svc.GenerateAPIKey(ctx, caller)
		if err != nil {
			return nil, APIKeyGenerateResult{}, toolError("api key generate", err)
		}
		return nil, APIKeyGenerateResult{APIKey: plaintext, Key: apiKeyResult(key)}, nil
	}
}

// APIKeyRevokeInput represents the MCP tool input for revoking a key.
type APIKeyRevokeInput struct {
	Caller string `json:"caller" jsonschema:"owner of the key"`
	APIKey string `json:"api_key" jsonschema:"secret key to revoke"`
}

// APIKeyRevokeTool defines the MCP tool schema for revoking a key.
func APIKeyRevokeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "api_key_revoke",
		Description: "Permanently deactivates one of the caller's API keys.",
	}
}

// APIKeyRevokeHandler revokes a key.
func APIKeyRevokeHandler(svc AdminService) mcp.ToolHandlerFor[APIKeyRevokeInput, APIKeyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input APIKeyRevokeInput) (*mcp.CallToolResult, APIKeyResult, error) {
		caller, err := requireCaller("api key revoke", input.Caller)
		if err != nil {
			return nil, APIKeyResult{}, err
		}
		key, err := svc.RevokeAPIKey(ctx, caller, input.APIKey)
		if err != nil {
			return nil, APIKeyResult{}, toolError("api key revoke", err)
		}
		return nil, apiKeyResult(key), nil
	}
}

// APIKeyListInput represents the MCP tool input for listing keys.
type APIKeyListInput struct {
	Caller string `json:"caller" jsonschema:"account whose keys are listed"`
}

// APIKeyListResult lists keys without secrets.
type APIKeyListResult struct {
	Keys []APIKeyResult `json:"keys" jsonschema:"keys in creation order"`
}

// APIKeyListTool defines the MCP tool schema for listing keys.
func APIKeyListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "api_key_list",
		Description: "Lists the caller's API keys. Secrets are never returned.",
	}
}

// APIKeyListHandler lists keys.
func APIKeyListHandler(svc AdminService) mcp.ToolHandlerFor[APIKeyListInput, APIKeyListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input APIKeyListInput) (*mcp.CallToolResult, APIKeyListResult, error) {
		caller, err := requireCaller("api key list", input.Caller)
		if err != nil {
			return nil, APIKeyListResult{}, err
		}
		keys, err := svc.APIKeys(ctx, caller)
		if err != nil {
			return nil, APIKeyListResult{}, toolError("api key list", err)
		}
		result := APIKeyListResult{Keys: make([]APIKeyResult, 0, len(keys))}
		for _, key := range keys {
			result.Keys = append(result.Keys, apiKeyResult(key))
		}
		return nil, result, nil
	}
}

// OwnerGetInput takes no arguments.
type OwnerGetInput struct{}

// OwnerResult names the administrative account.
type OwnerResult struct {
	Owner string `json:"owner" jsonschema:"owner account"`
}

// OwnerGetTool defines the MCP tool schema for reading the owner.
func OwnerGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "owner_get",
		Description: "Returns the account allowed to configure requirements and settle stake.",
	}
}

// OwnerGetHandler reads the owner.
func OwnerGetHandler(svc AdminService) mcp.ToolHandlerFor[OwnerGetInput, OwnerResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ OwnerGetInput) (*mcp.CallToolResult, OwnerResult, error) {
		owner, err := svc.Owner(ctx)
		if err != nil {
			return nil, OwnerResult{}, toolError("owner get", err)
		}
		return nil, OwnerResult{Owner: string(owner)}, nil
	}
}

// OwnerTransferInput represents the MCP tool input for transferring ownership.
type OwnerTransferInput struct {
	Caller   string `json:"caller" jsonschema:"current owner"`
	NewOwner string `json:"new_owner" jsonschema:"account that becomes owner"`
}

// OwnerTransferTool defines the MCP tool schema for transferring ownership.
func OwnerTransferTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "owner_transfer",
		Description: "Hands the owner role to another account. Owner only.",
	}
}

// OwnerTransferHandler transfers ownership.
func OwnerTransferHandler(svc AdminService) mcp.ToolHandlerFor[OwnerTransferInput, OwnerResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OwnerTransferInput) (*mcp.CallToolResult, OwnerResult, error) {
		caller, err := requireCaller("owner transfer", input.Caller)
		if err != nil {
			return nil, OwnerResult{}, err
		}
		newOwner, err := requireCaller("owner transfer", input.NewOwner)
		if err != nil {
			return nil, OwnerResult{}, err
		}
		if err := svc.TransferOwnership(ctx, caller, newOwner); err != nil {
			return nil, OwnerResult{}, toolError("owner transfer", err)
		}
		return nil, OwnerResult{Owner: string(newOwner)}, nil
	}
}

// EventListInput represents the MCP tool input for paging the event trail.
type EventListInput struct {
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"events per page, 50 by default and at most 200"`
}

// EventResult is one audit trail entry.
type EventResult struct {
	Seq          uint64 `json:"seq" jsonschema:"position in the trail"`
	ID           string `json:"id" jsonschema:"event identifier"`
	Type         string `json:"type" jsonschema:"event type"`
	ArtifactHash string `json:"artifact_hash,omitempty" jsonschema:"artifact involved, if any"`
	AuditType    string `json:"audit_type,omitempty" jsonschema:"audit type involved, if any"`
	BountyID     uint64 `json:"bounty_id,omitempty" jsonschema:"bounty involved, if any"`
	AccountID    string `json:"account_id,omitempty" jsonschema:"account involved, if any"`
	Payload      string `json:"payload" jsonschema:"JSON payload"`
	CreatedAt    string `json:"created_at" jsonschema:"RFC3339 timestamp"`
}

// EventListResult is one page of events.
type EventListResult struct {
	Events        []EventResult `json:"events" jsonschema:"events in sequence order"`
	NextPageToken string        `json:"next_page_token,omitempty" jsonschema:"token for the next page; empty at the end"`
}

// EventListTool defines the MCP tool schema for paging events.
func EventListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_list",
		Description: "Pages forward through the audit trail of every state change.",
	}
}

// EventListHandler pages events.
func EventListHandler(svc AdminService) mcp.ToolHandlerFor[EventListInput, EventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventListInput) (*mcp.CallToolResult, EventListResult, error) {
		page, err := svc.Events(ctx, input.PageToken, input.PageSize)
		if err != nil {
			return nil, EventListResult{}, toolError("event list", err)
		}
		result := EventListResult{
			Events:        make([]EventResult, 0, len(page.Events)),
			NextPageToken: page.NextPageToken,
		}
		for _, evt := range page.Events {
			result.Events = append(result.Events, EventResult{
				Seq:          evt.Seq,
				ID:           evt.ID,
				Type:         evt.Type,
				ArtifactHash: evt.ArtifactID,
				AuditType:    evt.AuditType,
				BountyID:     uint64(evt.BountyID),
				AccountID:    string(evt.AccountID),
				Payload:      evt.PayloadJSON,
				CreatedAt:    formatTime(evt.CreatedAt),
			})
		}
		return nil, result, nil
	}
}
