package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnauthorized                 = "UNAUTHORIZED"
	CodeInvalidArgument              = "INVALID_ARGUMENT"
	CodeNotFound                     = "NOT_FOUND"
	CodeAlreadyExists                = "ALREADY_EXISTS"
	CodeInsufficientAvailableBalance = "INSUFFICIENT_AVAILABLE_BALANCE"
	CodeInsufficientStakedBalance    = "INSUFFICIENT_STAKED_BALANCE"
	CodeAmountOverflow               = "AMOUNT_OVERFLOW"
	CodeAmountBelowFee               = "AMOUNT_BELOW_FEE"
	CodeTransferFailed               = "TRANSFER_FAILED"
	CodeBountyNotFound               = "BOUNTY_NOT_FOUND"
	CodeNoStakeRequirementConfigured = "NO_STAKE_REQUIREMENT_CONFIGURED"
	CodeBountyAlreadyLocked          = "BOUNTY_ALREADY_LOCKED"
	CodeBountyAlreadyClaimed         = "BOUNTY_ALREADY_CLAIMED"
	CodeBountyExpired                = "BOUNTY_EXPIRED"
	CodeBountyPairMismatch           = "BOUNTY_PAIR_MISMATCH"
	CodeBountyNotReserved            = "BOUNTY_NOT_RESERVED"
	CodeAlreadyFinalized             = "ALREADY_FINALIZED"
	CodeInvalidAPIKey                = "INVALID_API_KEY"
	CodeAPIKeyRevoked                = "API_KEY_REVOKED"
)

var enUSMessages = map[Code]string{
	CodeUnauthorized:                 "You are not allowed to perform this action.",
	CodeInvalidArgument:              "The request is invalid: {{.Reason}}.",
	CodeNotFound:                     "The requested record was not found.",
	CodeAlreadyExists:                "The record already exists.",
	CodeInsufficientAvailableBalance: "Your available balance of {{.Available}} is lower than the required {{.Required}}.",
	CodeInsufficientStakedBalance:    "The staked balance is lower than the amount requested.",
	CodeAmountOverflow:               "The amount is too large.",
	CodeAmountBelowFee:               "The amount must be larger than the transfer fee of {{.Fee}}.",
	CodeTransferFailed:               "The payment ledger rejected the transfer. Nothing was changed; you can retry.",
	CodeBountyNotFound:               "Bounty {{.BountyID}} does not exist.",
	CodeNoStakeRequirementConfigured: "No stake requirement is configured for audit type {{.AuditType}}.",
	CodeBountyAlreadyLocked:          "Bounty {{.BountyID}} is already reserved by another verifier.",
	CodeBountyAlreadyClaimed:         "Bounty {{.BountyID}} already has a verdict.",
	CodeBountyExpired:                "Bounty {{.BountyID}} has expired.",
	CodeBountyPairMismatch:           "Bounty {{.BountyID}} does not belong to this artifact and audit type.",
	CodeBountyNotReserved:            "You must reserve bounty {{.BountyID}} before filing a verdict.",
	CodeAlreadyFinalized:             "A final decision was already reached for this artifact.",
	CodeInvalidAPIKey:                "The API key is not recognized.",
	CodeAPIKeyRevoked:                "The API key was revoked. Generate a new one.",
}
