// Package errors provides structured, coded errors for the verifier engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Caller and input errors
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"

	// Ledger errors
	CodeInsufficientAvailableBalance Code = "INSUFFICIENT_AVAILABLE_BALANCE"
	CodeInsufficientStakedBalance    Code = "INSUFFICIENT_STAKED_BALANCE"
	CodeAmountOverflow               Code = "AMOUNT_OVERFLOW"
	CodeAmountBelowFee               Code = "AMOUNT_BELOW_FEE"
	CodeTransferFailed               Code = "TRANSFER_FAILED"

	// Bounty and reservation errors
	CodeBountyNotFound               Code = "BOUNTY_NOT_FOUND"
	CodeNoStakeRequirementConfigured Code = "NO_STAKE_REQUIREMENT_CONFIGURED"
	CodeBountyAlreadyLocked          Code = "BOUNTY_ALREADY_LOCKED"
	CodeBountyAlreadyClaimed         Code = "BOUNTY_ALREADY_CLAIMED"
	CodeBountyExpired                Code = "BOUNTY_EXPIRED"
	CodeBountyPairMismatch           Code = "BOUNTY_PAIR_MISMATCH"
	CodeBountyNotReserved            Code = "BOUNTY_NOT_RESERVED"

	// Consensus errors
	CodeAlreadyFinalized Code = "ALREADY_FINALIZED"

	// API key errors
	CodeInvalidAPIKey Code = "INVALID_API_KEY"
	CodeAPIKeyRevoked Code = "API_KEY_REVOKED"
)

// Retryable reports whether a caller may reasonably retry the same request
// later. Only failures of the external payment ledger qualify; every other
// code describes a state the caller must change first.
func (c Code) Retryable() bool {
	return c == CodeTransferFailed
}
