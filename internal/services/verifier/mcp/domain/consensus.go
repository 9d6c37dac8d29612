package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/engine"
)

// OutcomeResult represents the consensus state of an artifact and audit type.
type OutcomeResult struct {
	ArtifactHash     string `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType        string `json:"audit_type" jsonschema:"audit type identifier"`
	Status           string `json:"status" jsonschema:"pending, verified or rejected"`
	AttestationCount int    `json:"attestation_count" jsonschema:"on-time attestations"`
	DivergenceCount  int    `json:"divergence_count" jsonschema:"on-time divergences"`
	FinalizedAt      string `json:"finalized_at,omitempty" jsonschema:"RFC3339 finalization timestamp"`
}

func outcomeResult(outcome audit.Outcome) OutcomeResult {
	return OutcomeResult{
		ArtifactHash:     outcome.Pair.ArtifactID,
		AuditType:        outcome.Pair.AuditType,
		Status:           string(outcome.Status),
		AttestationCount: outcome.AttestationCount,
		DivergenceCount:  outcome.DivergenceCount,
		FinalizedAt:      formatTime(outcome.FinalizedAt),
	}
}

// VoteResult represents the MCP tool output after filing a verdict.
type VoteResult struct {
	Outcome          OutcomeResult `json:"outcome" jsonschema:"consensus state after the verdict"`
	Finalized        bool          `json:"finalized" jsonschema:"true when this verdict reached the threshold"`
	AlreadyFinalized bool          `json:"already_finalized" jsonschema:"true when the verdict arrived after finalization and was only recorded"`
}

func voteResult(result engine.VoteResult) VoteResult {
	return VoteResult{
		Outcome:          outcomeResult(result.Outcome),
		Finalized:        result.Finalized,
		AlreadyFinalized: result.AlreadyFinalized,
	}
}

// AttestationFileInput represents the MCP tool input for an attestation.
type AttestationFileInput struct {
	Caller       string            `json:"caller" jsonschema:"verifier holding the bounty lock"`
	ArtifactHash string            `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string            `json:"audit_type" jsonschema:"audit type identifier"`
	BountyID     uint64            `json:"bounty_id" jsonschema:"reserved bounty the verdict is filed under"`
	Metadata     map[string]string `json:"metadata,omitempty" jsonschema:"free-form evidence"`
}

// AttestationFileTool defines the MCP tool schema for filing an attestation.
func AttestationFileTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "attestation_file",
		Description: "Files a positive verdict under a bounty the caller has reserved. May finalize the artifact and audit type.",
	}
}

// AttestationFileHandler files an attestation.
func AttestationFileHandler(svc ConsensusService) mcp.ToolHandlerFor[AttestationFileInput, VoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AttestationFileInput) (*mcp.CallToolResult, VoteResult, error) {
		caller, err := requireCaller("attestation file", input.Caller)
		if err != nil {
			return nil, VoteResult{}, err
		}
		result, err := svc.FileAttestation(ctx, caller, input.ArtifactHash, input.AuditType, bounty.ID(input.BountyID), input.Metadata)
		if err != nil {
			return nil, VoteResult{}, toolError("attestation file", err)
		}
		return nil, voteResult(result), nil
	}
}

// DivergenceFileInput represents the MCP tool input for a divergence report.
type DivergenceFileInput struct {
	Caller       string            `json:"caller" jsonschema:"verifier holding the bounty lock"`
	ArtifactHash string            `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string            `json:"audit_type" jsonschema:"audit type identifier"`
	BountyID     uint64            `json:"bounty_id" jsonschema:"reserved bounty the verdict is filed under"`
	Report       string            `json:"report" jsonschema:"what diverged"`
	Metadata     map[string]string `json:"metadata,omitempty" jsonschema:"free-form evidence"`
}

// DivergenceFileTool defines the MCP tool schema for filing a divergence.
func DivergenceFileTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "divergence_file",
		Description: "Files a negative verdict with a report under a bounty the caller has reserved. May finalize the artifact and audit type.",
	}
}

// DivergenceFileHandler files a divergence.
func DivergenceFileHandler(svc ConsensusService) mcp.ToolHandlerFor[DivergenceFileInput, VoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DivergenceFileInput) (*mcp.CallToolResult, VoteResult, error) {
		caller, err := requireCaller("divergence file", input.Caller)
		if err != nil {
			return nil, VoteResult{}, err
		}
		result, err := svc.FileDivergence(ctx, caller, input.ArtifactHash, input.AuditType, bounty.ID(input.BountyID), input.Report, input.Metadata)
		if err != nil {
			return nil, VoteResult{}, toolError("divergence file", err)
		}
		return nil, voteResult(result), nil
	}
}

// OutcomeGetInput represents the MCP tool input for reading an outcome.
type OutcomeGetInput struct {
	ArtifactHash string `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string `json:"audit_type" jsonschema:"audit type identifier"`
}

// OutcomeGetTool defines the MCP tool schema for reading an outcome.
func OutcomeGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "outcome_get",
		Description: "Returns the consensus status and vote counts for an artifact and audit type.",
	}
}

// OutcomeGetHandler reads an outcome.
func OutcomeGetHandler(svc ConsensusService) mcp.ToolHandlerFor[OutcomeGetInput, OutcomeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OutcomeGetInput) (*mcp.CallToolResult, OutcomeResult, error) {
		outcome, err := svc.Outcome(ctx, input.ArtifactHash, input.AuditType)
		if err != nil {
			return nil, OutcomeResult{}, toolError("outcome get", err)
		}
		return nil, outcomeResult(outcome), nil
	}
}

// ArtifactVerifiedInput represents the MCP tool input for the verified check.
type ArtifactVerifiedInput struct {
	ArtifactHash string `json:"artifact_hash" jsonschema:"artifact to check"`
}

// ArtifactVerifiedResult reports whether an artifact is verified.
type ArtifactVerifiedResult struct {
	ArtifactHash string `json:"artifact_hash" jsonschema:"artifact checked"`
	Verified     bool   `json:"verified" jsonschema:"true when some audit type verified it and none rejected it"`
}

// ArtifactVerifiedTool defines the MCP tool schema for the verified check.
func ArtifactVerifiedTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "artifact_verified",
		Description: "Reports whether an artifact has at least one verified audit type and no rejected one.",
	}
}

// ArtifactVerifiedHandler checks an artifact.
func ArtifactVerifiedHandler(svc ConsensusService) mcp.ToolHandlerFor[ArtifactVerifiedInput, ArtifactVerifiedResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ArtifactVerifiedInput) (*mcp.CallToolResult, ArtifactVerifiedResult, error) {
		verified, err := svc.IsVerified(ctx, input.ArtifactHash)
		if err != nil {
			return nil, ArtifactVerifiedResult{}, toolError("artifact verified", err)
		}
		return nil, ArtifactVerifiedResult{ArtifactHash: input.ArtifactHash, Verified: verified}, nil
	}
}

// AuditRecordResult is one filed verdict.
type AuditRecordResult struct {
	Seq      uint64            `json:"seq" jsonschema:"filing order"`
	BountyID uint64            `json:"bounty_id" jsonschema:"bounty the verdict was filed under"`
	Kind     string            `json:"kind" jsonschema:"attestation or divergence"`
	Auditor  string            `json:"auditor" jsonschema:"verifier that filed it"`
	Report   string            `json:"report,omitempty" jsonschema:"divergence report"`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema:"free-form evidence"`
	FiledAt  string            `json:"filed_at" jsonschema:"RFC3339 filing timestamp"`
	Late     bool              `json:"late" jsonschema:"true when filed after finalization"`
}

// AuditRecordListInput represents the MCP tool input for listing verdicts.
type AuditRecordListInput struct {
	ArtifactHash string `json:"artifact_hash" jsonschema:"artifact under audit"`
	AuditType    string `json:"audit_type" jsonschema:"audit type identifier"`
}

// AuditRecordListResult lists verdicts in filing order.
type AuditRecordListResult struct {
	Records []AuditRecordResult `json:"records" jsonschema:"verdicts, late ones included"`
}

// AuditRecordListTool defines the MCP tool schema for listing verdicts.
func AuditRecordListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "audit_record_list",
		Description: "Lists every verdict filed for an artifact and audit type, including late ones.",
	}
}

// AuditRecordListHandler lists verdicts.
func AuditRecordListHandler(svc ConsensusService) mcp.ToolHandlerFor[AuditRecordListInput, AuditRecordListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AuditRecordListInput) (*mcp.CallToolResult, AuditRecordListResult, error) {
		records, err := svc.AuditRecords(ctx, input.ArtifactHash, input.AuditType)
		if err != nil {
			return nil, AuditRecordListResult{}, toolError("audit record list", err)
		}
		result := AuditRecordListResult{Records: make([]AuditRecordResult, 0, len(records))}
		for _, rec := range records {
			result.Records = append(result.Records, AuditRecordResult{
				Seq:      rec.Seq,
				BountyID: uint64(rec.BountyID),
				Kind:     string(rec.Kind),
				Auditor:  string(rec.Auditor),
				Report:   rec.Report,
				Metadata: rec.Metadata,
				FiledAt:  formatTime(rec.FiledAt),
				Late:     rec.Late,
			})
		}
		return nil, result, nil
	}
}
