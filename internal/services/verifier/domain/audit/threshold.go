package audit

import "fmt"

// Threshold is the N-of-M finality rule.
type Threshold struct {
	Required int
	PoolSize int
}

// Validate requires a strict majority of the pool, so both outcomes can
// never be reached for one pair.
func (t Threshold) Validate() error {
	if t.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", t.PoolSize)
	}
	if t.Required <= t.PoolSize/2 || t.Required > t.PoolSize {
		return fmt.Errorf("consensus threshold %d must be a majority of pool size %d", t.Required, t.PoolSize)
	}
	return nil
}

// Tally counts the non-late votes for pair among records and applies the
// threshold. Attestations are checked before divergences.
func (t Threshold) Tally(pair Pair, records []Record) Outcome {
	out := Outcome{Pair: pair, Status: StatusPending}
	for _, rec := range records {
		if rec.Late || rec.Pair != pair {
			continue
		}
		switch rec.Kind {
		case KindAttestation:
			out.AttestationCount++
		case KindDivergence:
			out.DivergenceCount++
		}
	}
	out.Status = t.Decide(out.AttestationCount, out.DivergenceCount)
	return out
}

// Decide maps vote counts to a status.
func (t Threshold) Decide(attestations, divergences int) Status {
	switch {
	case attestations >= t.Required:
		return StatusVerified
	case divergences >= t.Required:
		return StatusRejected
	default:
		return StatusPending
	}
}
