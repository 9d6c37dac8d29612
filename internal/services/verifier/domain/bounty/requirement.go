package bounty

import (
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// StakeRequirement is the collateral a verifier must lock to reserve a
// bounty of the given audit type. There is one active entry per audit type.
type StakeRequirement struct {
	AuditType string
	Asset     ledger.AssetID
	Amount    ledger.Amount
	UpdatedAt time.Time
}

// Validate checks the requirement is usable for staking.
func (r StakeRequirement) Validate() error {
	if strings.TrimSpace(r.AuditType) == "" {
		return errors.New("audit type is required")
	}
	if strings.TrimSpace(string(r.Asset)) == "" {
		return errors.New("asset is required")
	}
	if r.Amount.IsZero() {
		return errors.New("amount must be greater than zero")
	}
	return nil
}
