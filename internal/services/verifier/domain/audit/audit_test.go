package audit

import (
	"testing"
	"time"
)

var testPair = Pair{ArtifactID: "sha256:abc", AuditType: "build_v1"}

func votes(kind Kind, n int) []Record {
	now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		if kind == KindAttestation {
			out = append(out, NewAttestation(testPair, 0, "auditor", nil, now))
		} else {
			out = append(out, NewDivergence(testPair, 0, "auditor", "mismatch", nil, now))
		}
	}
	return out
}

func TestThresholdValidate(t *testing.T) {
	cases := []struct {
		required, pool int
		wantErr        bool
	}{
		{5, 9, false},
		{9, 9, false},
		{4, 9, true},
		{10, 9, true},
		{1, 1, false},
		{1, 2, true},
		{1, 0, true},
	}
	for _, tc := range cases {
		err := Threshold{Required: tc.required, PoolSize: tc.pool}.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("validate(%d of %d) error = %v, wantErr %v", tc.required, tc.pool, err, tc.wantErr)
		}
	}
}

func TestTallyThresholds(t *testing.T) {
	th := Threshold{Required: 5, PoolSize: 9}
	cases := []struct {
		name    string
		records []Record
		want    Status
	}{
		{name: "five attestations", records: votes(KindAttestation, 5), want: StatusVerified},
		{name: "five divergences", records: votes(KindDivergence, 5), want: StatusRejected},
		{name: "four attestations", records: votes(KindAttestation, 4), want: StatusPending},
		{name: "four divergences", records: votes(KindDivergence, 4), want: StatusPending},
		{name: "split", records: append(votes(KindAttestation, 4), votes(KindDivergence, 4)...), want: StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := th.Tally(testPair, tc.records)
			if got.Status != tc.want {
				t.Fatalf("status = %s, want %s", got.Status, tc.want)
			}
		})
	}
}

func TestTallyIgnoresLateAndOtherPairs(t *testing.T) {
	th := Threshold{Required: 2, PoolSize: 3}
	records := votes(KindAttestation, 1)
	late := votes(KindAttestation, 1)[0]
	late.Late = true
	other := votes(KindAttestation, 1)[0]
	other.Pair.AuditType = "data_safety_v1"
	records = append(records, late, other)

	got := th.Tally(testPair, records)
	if got.AttestationCount != 1 {
		t.Fatalf("attestation count = %d, want 1", got.AttestationCount)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %s, want %s", got.Status, StatusPending)
	}
}

func TestDecideChecksAttestationsFirst(t *testing.T) {
	th := Threshold{Required: 1, PoolSize: 1}
	if got := th.Decide(1, 1); got != StatusVerified {
		t.Fatalf("status = %s, want %s", got, StatusVerified)
	}
}

func TestAgrees(t *testing.T) {
	if !Agrees(KindAttestation, StatusVerified) || !Agrees(KindDivergence, StatusRejected) {
		t.Fatal("expected matching votes to agree")
	}
	if Agrees(KindAttestation, StatusRejected) || Agrees(KindDivergence, StatusPending) {
		t.Fatal("expected mismatched votes to disagree")
	}
}

func TestParseKindAndStatus(t *testing.T) {
	if _, err := ParseKind("attestation"); err != nil {
		t.Fatalf("parse kind: %v", err)
	}
	if _, err := ParseKind("vote"); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if _, err := ParseStatus("rejected"); err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatal("expected unknown status error")
	}
	if StatusPending.Terminal() || !StatusVerified.Terminal() {
		t.Fatal("unexpected terminal classification")
	}
}
