package domain

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// BalanceResult is one asset bucket of an account.
type BalanceResult struct {
	Account   string `json:"account" jsonschema:"account identifier"`
	Asset     string `json:"asset" jsonschema:"asset identifier"`
	Available string `json:"available" jsonschema:"spendable amount"`
	Staked    string `json:"staked" jsonschema:"amount locked behind reservations"`
}

func balanceResult(acct account.ID, asset ledger.AssetID, balance ledger.Balance) BalanceResult {
	return BalanceResult{
		Account:   string(acct),
		Asset:     string(asset),
		Available: balance.Available.String(),
		Staked:    balance.Staked.String(),
	}
}

// DepositInput represents the MCP tool input for a deposit.
type DepositInput struct {
	Caller string `json:"caller" jsonschema:"authenticated account making the deposit"`
	Asset  string `json:"asset" jsonschema:"asset identifier"`
	Amount string `json:"amount" jsonschema:"base-10 amount to pull from the caller"`
}

// DepositTool defines the MCP tool schema for deposits.
func DepositTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "deposit",
		Description: "Pulls funds the caller approved for the custody account and credits them as available balance.",
	}
}

// DepositHandler executes a deposit.
func DepositHandler(svc LedgerService) mcp.ToolHandlerFor[DepositInput, BalanceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DepositInput) (*mcp.CallToolResult, BalanceResult, error) {
		const action = "deposit"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, BalanceResult{}, err
		}
		amount, err := parseAmount(action, "amount", input.Amount)
		if err != nil {
			return nil, BalanceResult{}, err
		}
		asset := ledger.AssetID(strings.TrimSpace(input.Asset))
		balance, err := svc.Deposit(ctx, caller, asset, amount)
		if err != nil {
			return nil, BalanceResult{}, toolError(action, err)
		}
		return nil, balanceResult(caller, asset, balance), nil
	}
}

// WithdrawInput represents the MCP tool input for a withdrawal.
type WithdrawInput struct {
	Caller string `json:"caller" jsonschema:"authenticated account withdrawing"`
	Asset  string `json:"asset" jsonschema:"asset identifier"`
	Amount string `json:"amount" jsonschema:"base-10 amount to debit from available balance"`
}

// WithdrawResult represents the MCP tool output for a withdrawal.
type WithdrawResult struct {
	Balance BalanceResult `json:"balance" jsonschema:"balance after the withdrawal"`
	Sent    string        `json:"sent" jsonschema:"amount delivered after the ledger fee"`
	Fee     string        `json:"fee" jsonschema:"ledger fee deducted from the amount"`
}

// WithdrawTool defines the MCP tool schema for withdrawals.
func WithdrawTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "withdraw",
		Description: "Debits available balance and sends it, minus the ledger fee, back to the caller.",
	}
}

// WithdrawHandler executes a withdrawal.
func WithdrawHandler(svc LedgerService) mcp.ToolHandlerFor[WithdrawInput, WithdrawResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WithdrawInput) (*mcp.CallToolResult, WithdrawResult, error) {
		const action = "withdraw"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, WithdrawResult{}, err
		}
		amount, err := parseAmount(action, "amount", input.Amount)
		if err != nil {
			return nil, WithdrawResult{}, err
		}
		asset := ledger.AssetID(strings.TrimSpace(input.Asset))
		result, err := svc.Withdraw(ctx, caller, asset, amount)
		if err != nil {
			return nil, WithdrawResult{}, toolError(action, err)
		}
		return nil, WithdrawResult{
			Balance: balanceResult(caller, asset, result.Balance),
			Sent:    result.Sent.String(),
			Fee:     result.Fee.String(),
		}, nil
	}
}

// LedgerMintInput represents the MCP tool input for minting ledger funds.
type LedgerMintInput struct {
	Caller  string `json:"caller" jsonschema:"owner account issuing the funds"`
	Account string `json:"account" jsonschema:"ledger account to credit"`
	Asset   string `json:"asset" jsonschema:"asset identifier"`
	Amount  string `json:"amount" jsonschema:"base-10 amount to issue"`
}

// LedgerMintResult represents the MCP tool output for minting.
type LedgerMintResult struct {
	Account string `json:"account" jsonschema:"credited ledger account"`
	Asset   string `json:"asset" jsonschema:"asset identifier"`
	Held    string `json:"held" jsonschema:"ledger balance of the account after minting"`
}

// LedgerMintTool defines the MCP tool schema for minting ledger funds.
func LedgerMintTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ledger_mint",
		Description: "Issues funds to an account on the local payment ledger. Owner only.",
	}
}

// LedgerMintHandler mints ledger funds.
func LedgerMintHandler(svc FaucetService) mcp.ToolHandlerFor[LedgerMintInput, LedgerMintResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LedgerMintInput) (*mcp.CallToolResult, LedgerMintResult, error) {
		const action = "ledger mint"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, LedgerMintResult{}, err
		}
		acct := account.ID(strings.TrimSpace(input.Account))
		amount, err := parseAmount(action, "amount", input.Amount)
		if err != nil {
			return nil, LedgerMintResult{}, err
		}
		asset := ledger.AssetID(strings.TrimSpace(input.Asset))
		held, err := svc.LedgerMint(ctx, caller, acct, asset, amount)
		if err != nil {
			return nil, LedgerMintResult{}, toolError(action, err)
		}
		return nil, LedgerMintResult{Account: string(acct), Asset: string(asset), Held: held.String()}, nil
	}
}

// LedgerApproveInput represents the MCP tool input for a custody approval.
type LedgerApproveInput struct {
	Caller  string `json:"caller" jsonschema:"owner account setting the approval"`
	Account string `json:"account" jsonschema:"ledger account whose funds custody may pull"`
	Asset   string `json:"asset" jsonschema:"asset identifier"`
	Amount  string `json:"amount" jsonschema:"base-10 allowance, including the ledger fee"`
}

// LedgerApproveResult represents the MCP tool output for a custody approval.
type LedgerApproveResult struct {
	Account   string `json:"account" jsonschema:"approving ledger account"`
	Asset     string `json:"asset" jsonschema:"asset identifier"`
	Allowance string `json:"allowance" jsonschema:"amount custody may now pull"`
}

// LedgerApproveTool defines the MCP tool schema for custody approvals.
func LedgerApproveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ledger_approve",
		Description: "Lets the custody account pull funds from an account on the local payment ledger, replacing any prior approval. Owner only.",
	}
}

// LedgerApproveHandler sets a custody approval.
func LedgerApproveHandler(svc FaucetService) mcp.ToolHandlerFor[LedgerApproveInput, LedgerApproveResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LedgerApproveInput) (*mcp.CallToolResult, LedgerApproveResult, error) {
		const action = "ledger approve"
		caller, err := requireCaller(action, input.Caller)
		if err != nil {
			return nil, LedgerApproveResult{}, err
		}
		acct := account.ID(strings.TrimSpace(input.Account))
		amount, err := parseAmount(action, "amount", input.Amount)
		if err != nil {
			return nil, LedgerApproveResult{}, err
		}
		asset := ledger.AssetID(strings.TrimSpace(input.Asset))
		if err := svc.LedgerApprove(ctx, caller, acct, asset, amount); err != nil {
			return nil, LedgerApproveResult{}, toolError(action, err)
		}
		return nil, LedgerApproveResult{Account: string(acct), Asset: string(asset), Allowance: amount.String()}, nil
	}
}

// BalanceListInput represents the MCP tool input for listing balances.
type BalanceListInput struct {
	Account string `json:"account" jsonschema:"account identifier"`
}

// BalanceListResult represents the MCP tool output for listing balances.
type BalanceListResult struct {
	Balances []BalanceResult `json:"balances" jsonschema:"one entry per asset the account holds"`
}

// BalanceListTool defines the MCP tool schema for listing balances.
func BalanceListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "balance_list",
		Description: "Lists available and staked balances of an account for every asset.",
	}
}

// BalanceListHandler lists an account's balances.
func BalanceListHandler(svc LedgerService) mcp.ToolHandlerFor[BalanceListInput, BalanceListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BalanceListInput) (*mcp.CallToolResult, BalanceListResult, error) {
		acct, err := requireCaller("balance list", input.Account)
		if err != nil {
			return nil, BalanceListResult{}, err
		}
		balances, err := svc.Balances(ctx, acct)
		if err != nil {
			return nil, BalanceListResult{}, toolError("balance list", err)
		}
		result := BalanceListResult{Balances: make([]BalanceResult, 0, len(balances))}
		for _, entry := range balances {
			result.Balances = append(result.Balances, balanceResult(acct, entry.Asset, entry.Balance))
		}
		return nil, result, nil
	}
}

// AccountGetInput represents the MCP tool input for reading an account.
type AccountGetInput struct {
	Account string `json:"account" jsonschema:"account identifier"`
}

// AccountResult represents a verifier's reputation profile.
type AccountResult struct {
	ID                 string `json:"id" jsonschema:"account identifier"`
	ReputationScore    int    `json:"reputation_score" jsonschema:"reputation between 0 and 100"`
	TotalEarnings      string `json:"total_earnings" jsonschema:"sum of released stake"`
	TotalVerifications uint64 `json:"total_verifications" jsonschema:"number of released verifications"`
	CreatedAt          string `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
	UpdatedAt          string `json:"updated_at" jsonschema:"RFC3339 timestamp of the last settlement"`
}

// AccountGetTool defines the MCP tool schema for reading an account.
func AccountGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_get",
		Description: "Returns reputation, earnings and verification count of an account.",
	}
}

// AccountGetHandler reads an account.
func AccountGetHandler(svc LedgerService) mcp.ToolHandlerFor[AccountGetInput, AccountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AccountGetInput) (*mcp.CallToolResult, AccountResult, error) {
		id, err := requireCaller("account get", input.Account)
		if err != nil {
			return nil, AccountResult{}, err
		}
		acct, err := svc.Account(ctx, id)
		if err != nil {
			return nil, AccountResult{}, toolError("account get", err)
		}
		return nil, AccountResult{
			ID:                 string(acct.ID),
			ReputationScore:    acct.ReputationScore,
			TotalEarnings:      acct.TotalEarnings.String(),
			TotalVerifications: acct.TotalVerifications,
			CreatedAt:          formatTime(acct.CreatedAt),
			UpdatedAt:          formatTime(acct.UpdatedAt),
		}, nil
	}
}

// TreasuryGetInput takes no arguments.
type TreasuryGetInput struct{}

// AssetAmount is a total for one asset.
type AssetAmount struct {
	Asset  string `json:"asset" jsonschema:"asset identifier"`
	Amount string `json:"amount" jsonschema:"base-10 amount"`
}

// TreasuryResult lists slashed totals per asset.
type TreasuryResult struct {
	Slashed []AssetAmount `json:"slashed" jsonschema:"stake burned by slashing, per asset"`
}

// TreasuryGetTool defines the MCP tool schema for reading slashed totals.
func TreasuryGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "treasury_get",
		Description: "Returns the total stake burned by slashing, per asset.",
	}
}

// TreasuryGetHandler reads the treasury.
func TreasuryGetHandler(svc LedgerService) mcp.ToolHandlerFor[TreasuryGetInput, TreasuryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ TreasuryGetInput) (*mcp.CallToolResult, TreasuryResult, error) {
		totals, err := svc.Treasury(ctx)
		if err != nil {
			return nil, TreasuryResult{}, toolError("treasury get", err)
		}
		result := TreasuryResult{Slashed: make([]AssetAmount, 0, len(totals))}
		for _, total := range totals {
			result.Slashed = append(result.Slashed, AssetAmount{Asset: string(total.Asset), Amount: total.Amount.String()})
		}
		return nil, result, nil
	}
}
