package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(map[ledger.AssetID]ledger.Amount{"usdc": ledger.NewAmount(1)})
	if err := l.Mint("alice", "usdc", ledger.NewAmount(20)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	return l
}

func balanceOf(t *testing.T, l *Ledger, owner account.ID) ledger.Amount {
	t.Helper()
	got, err := l.BalanceOf(context.Background(), owner, "usdc")
	if err != nil {
		t.Fatalf("balance of %s: %v", owner, err)
	}
	return got
}

func TestTransferChargesFeeToSender(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Transfer(context.Background(), "alice", "bob", "usdc", ledger.NewAmount(5)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balanceOf(t, l, "alice"); got != ledger.NewAmount(14) {
		t.Fatalf("alice = %s, want 14", got)
	}
	if got := balanceOf(t, l, "bob"); got != ledger.NewAmount(5) {
		t.Fatalf("bob = %s, want 5", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	err := l.Transfer(context.Background(), "alice", "bob", "usdc", ledger.NewAmount(20))
	if !errors.Is(err, payment.ErrInsufficientFunds) {
		t.Fatalf("transfer error = %v, want %v", err, payment.ErrInsufficientFunds)
	}
	if got := balanceOf(t, l, "alice"); got != ledger.NewAmount(20) {
		t.Fatalf("alice = %s, want unchanged 20", got)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.TransferFrom(ctx, "custody", "alice", "custody", "usdc", ledger.NewAmount(5)); !errors.Is(err, payment.ErrInsufficientAllowance) {
		t.Fatalf("pull without approval error = %v, want %v", err, payment.ErrInsufficientAllowance)
	}
	if err := l.Approve("alice", "custody", "usdc", ledger.NewAmount(6)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.TransferFrom(ctx, "custody", "alice", "custody", "usdc", ledger.NewAmount(5)); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if got := balanceOf(t, l, "custody"); got != ledger.NewAmount(5) {
		t.Fatalf("custody = %s, want 5", got)
	}
	if err := l.TransferFrom(ctx, "custody", "alice", "custody", "usdc", ledger.NewAmount(1)); !errors.Is(err, payment.ErrInsufficientAllowance) {
		t.Fatalf("second pull error = %v, want %v", err, payment.ErrInsufficientAllowance)
	}
}

func TestFailNextAppliesOnce(t *testing.T) {
	l := newTestLedger(t)
	boom := errors.New("ledger unavailable")
	l.FailNext(boom)

	if err := l.Transfer(context.Background(), "alice", "bob", "usdc", ledger.NewAmount(1)); !errors.Is(err, boom) {
		t.Fatalf("transfer error = %v, want %v", err, boom)
	}
	if got := balanceOf(t, l, "alice"); got != ledger.NewAmount(20) {
		t.Fatalf("alice = %s, want unchanged 20", got)
	}
	if err := l.Transfer(context.Background(), "alice", "bob", "usdc", ledger.NewAmount(1)); err != nil {
		t.Fatalf("transfer after failure: %v", err)
	}
}

func TestUnknownAsset(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Fee(context.Background(), "doge"); !errors.Is(err, payment.ErrUnknownAsset) {
		t.Fatalf("fee error = %v, want %v", err, payment.ErrUnknownAsset)
	}
}
