package audit

import (
	"fmt"
	"time"
)

// Status is the consensus state of a pair.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// ParseStatus validates a stored status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusVerified, StatusRejected:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown outcome status %q", value)
	}
}

// Outcome is the consensus view of a pair. Pending outcomes are derived
// from the record set; terminal ones are persisted exactly once and carry
// the counts observed at finalization.
type Outcome struct {
	Pair             Pair
	Status           Status
	AttestationCount int
	DivergenceCount  int
	FinalizedAt      time.Time
}

// Agrees reports whether a vote of kind matches a terminal status.
func Agrees(kind Kind, status Status) bool {
	switch kind {
	case KindAttestation:
		return status == StatusVerified
	case KindDivergence:
		return status == StatusRejected
	default:
		return false
	}
}
