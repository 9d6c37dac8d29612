package cursor

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token, err := Encode(New(42, "artifact=abc"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	seq, err := Resume(token, "artifact=abc")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if seq != 42 {
		t.Fatalf("seq = %d, want 42", seq)
	}
}

func TestResumeRejectsChangedFilter(t *testing.T) {
	token, err := Encode(New(3, "artifact=abc"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Resume(token, "artifact=def"); err == nil {
		t.Fatal("expected filter mismatch error")
	}
}

func TestResumeEmptyTokenStartsAtZero(t *testing.T) {
	seq, err := Resume("", "anything")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if seq != 0 {
		t.Fatalf("seq = %d, want 0", seq)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}
