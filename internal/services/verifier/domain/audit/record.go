// Package audit holds the vote records filed against an (artifact, audit
// type) pair and the threshold state machine that turns them into a single
// terminal outcome.
package audit

import (
	"fmt"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
)

// Kind discriminates the vote variants.
type Kind string

const (
	// KindAttestation is a positive vote.
	KindAttestation Kind = "attestation"
	// KindDivergence is a negative vote carrying a report.
	KindDivergence Kind = "divergence"
)

// ParseKind validates a stored kind string.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindAttestation, KindDivergence:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("unknown audit record kind %q", value)
	}
}

// Pair identifies one consensus state machine.
type Pair struct {
	ArtifactID string
	AuditType  string
}

// Record is one append-only vote. Report is set only for divergences.
// Late marks a vote filed after the pair had already finalized; late votes
// are kept for history and never counted.
type Record struct {
	Seq      uint64
	Pair     Pair
	BountyID bounty.ID
	Kind     Kind
	Auditor  account.ID
	Report   string
	Metadata map[string]string
	FiledAt  time.Time
	Late     bool
}

// NewAttestation builds a positive vote.
func NewAttestation(pair Pair, bountyID bounty.ID, auditor account.ID, metadata map[string]string, now time.Time) Record {
	return Record{
		Pair:     pair,
		BountyID: bountyID,
		Kind:     KindAttestation,
		Auditor:  auditor,
		Metadata: metadata,
		FiledAt:  now,
	}
}

// NewDivergence builds a negative vote.
func NewDivergence(pair Pair, bountyID bounty.ID, reporter account.ID, report string, metadata map[string]string, now time.Time) Record {
	return Record{
		Pair:     pair,
		BountyID: bountyID,
		Kind:     KindDivergence,
		Auditor:  reporter,
		Report:   report,
		Metadata: metadata,
		FiledAt:  now,
	}
}
