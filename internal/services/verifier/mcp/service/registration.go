package service

import (
	"github.com/louisbranch/verifier.space/internal/services/verifier/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationModule struct {
	name     string
	register func(*mcp.Server, domain.Verifier)
}

const (
	mcpLedgerToolsModuleName      = "ledger-tools"
	mcpBountyToolsModuleName      = "bounty-tools"
	mcpReservationToolsModuleName = "reservation-tools"
	mcpConsensusToolsModuleName   = "consensus-tools"
	mcpAdminToolsModuleName       = "admin-tools"
)

func mcpRegistrationModules() []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{name: mcpLedgerToolsModuleName, register: registerLedgerTools},
		{name: mcpBountyToolsModuleName, register: registerBountyTools},
		{name: mcpReservationToolsModuleName, register: registerReservationTools},
		{name: mcpConsensusToolsModuleName, register: registerConsensusTools},
		{name: mcpAdminToolsModuleName, register: registerAdminTools},
	}
}

func registerLedgerTools(server *mcp.Server, svc domain.Verifier) {
	mcp.AddTool(server, domain.DepositTool(), domain.DepositHandler(svc))
	mcp.AddTool(server, domain.WithdrawTool(), domain.WithdrawHandler(svc))
	mcp.AddTool(server, domain.BalanceListTool(), domain.BalanceListHandler(svc))
	mcp.AddTool(server, domain.AccountGetTool(), domain.AccountGetHandler(svc))
	mcp.AddTool(server, domain.TreasuryGetTool(), domain.TreasuryGetHandler(svc))
	mcp.AddTool(server, domain.LedgerMintTool(), domain.LedgerMintHandler(svc))
	mcp.AddTool(server, domain.LedgerApproveTool(), domain.LedgerApproveHandler(svc))
}

func registerBountyTools(server *mcp.Server, svc domain.Verifier) {
	mcp.AddTool(server, domain.StakeRequirementSetTool(), domain.StakeRequirementSetHandler(svc))
	mcp.AddTool(server, domain.StakeRequirementGetTool(), domain.StakeRequirementGetHandler(svc))
	mcp.AddTool(server, domain.StakeRequirementListTool(), domain.StakeRequirementListHandler(svc))
	mcp.AddTool(server, domain.BountyCreateTool(), domain.BountyCreateHandler(svc))
	mcp.AddTool(server, domain.BountyGetTool(), domain.BountyGetHandler(svc))
	mcp.AddTool(server, domain.BountyListTool(), domain.BountyListHandler(svc))
}

func registerReservationTools(server *mcp.Server, svc domain.Verifier) {
	mcp.AddTool(server, domain.BountyReserveTool(), domain.BountyReserveHandler(svc))
	mcp.AddTool(server, domain.LockGetTool(), domain.LockGetHandler(svc))
	mcp.AddTool(server, domain.LockCleanupTool(), domain.LockCleanupHandler(svc))
	mcp.AddTool(server, domain.StakeReleaseTool(), domain.StakeReleaseHandler(svc))
	mcp.AddTool(server, domain.StakeSlashTool(), domain.StakeSlashHandler(svc))
}

func registerConsensusTools(server *mcp.Server, svc domain.Verifier) {
	mcp.AddTool(server, domain.AttestationFileTool(), domain.AttestationFileHandler(svc))
	mcp.AddTool(server, domain.DivergenceFileTool(), domain.DivergenceFileHandler(svc))
	mcp.AddTool(server, domain.OutcomeGetTool(), domain.OutcomeGetHandler(svc))
	mcp.AddTool(server, domain.ArtifactVerifiedTool(), domain.ArtifactVerifiedHandler(svc))
	mcp.AddTool(server, domain.AuditRecordListTool(), domain.AuditRecordListHandler(svc))
}

func registerAdminTools(server *mcp.Server, svc domain.Verifier) {
	mcp.AddTool(server, domain.APIKeyGenerateTool(), domain.APIKeyGenerateHandler(svc))
	mcp.AddTool(server, domain.APIKeyRevokeTool(), domain.APIKeyRevokeHandler(svc))
	mcp.AddTool(server, domain.APIKeyListTool(), domain.APIKeyListHandler(svc))
	mcp.AddTool(server, domain.OwnerGetTool(), domain.OwnerGetHandler(svc))
	mcp.AddTool(server, domain.OwnerTransferTool(), domain.OwnerTransferHandler(svc))
	mcp.AddTool(server, domain.EventListTool(), domain.EventListHandler(svc))
}
