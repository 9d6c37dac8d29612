package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("reserve: %w", New(CodeBountyAlreadyLocked, "bounty 7 is locked"))
	if !stderrors.Is(err, Sentinel(CodeBountyAlreadyLocked)) {
		t.Fatal("expected wrapped error to match by code")
	}
	if stderrors.Is(err, Sentinel(CodeBountyNotFound)) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("ledger offline")
	err := Wrap(CodeTransferFailed, "pull deposit", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "pull deposit: ledger offline" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
	err := fmt.Errorf("outer: %w", WithMetadata(CodeAPIKeyRevoked, "revoked", map[string]string{"Hint": "vsk_abc"}))
	if got := CodeOf(err); got != CodeAPIKeyRevoked {
		t.Fatalf("code = %s, want %s", got, CodeAPIKeyRevoked)
	}
	if got := MetadataOf(err)["Hint"]; got != "vsk_abc" {
		t.Fatalf("metadata hint = %q, want vsk_abc", got)
	}
}

func TestRetryable(t *testing.T) {
	if !CodeTransferFailed.Retryable() {
		t.Fatal("expected transfer failures to be retryable")
	}
	if CodeBountyAlreadyLocked.Retryable() {
		t.Fatal("expected lock conflicts not to be retryable")
	}
}
