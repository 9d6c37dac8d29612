package engine

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

func TestDepositCreditsAvailable(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 5)

	assertBalance(t, h.balance(t, "alice"), 5, 0)
	custody, err := h.payments.BalanceOf(context.Background(), testCustody, testAsset)
	if err != nil {
		t.Fatalf("custody balance: %v", err)
	}
	if custody != ledger.NewAmount(5) {
		t.Fatalf("custody = %s, want 5", custody)
	}
	if got := h.account(t, "alice").ReputationScore; got != 100 {
		t.Fatalf("reputation = %d, want 100", got)
	}
}

func TestDepositRejectsZeroAmount(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Deposit(context.Background(), "alice", testAsset, ledger.Zero)
	assertCode(t, err, apperrors.CodeInvalidArgument)
}

func TestDepositRollsBackOnLedgerFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	boom := errors.New("ledger down")
	if err := h.payments.Mint("alice", testAsset, ledger.NewAmount(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := h.payments.Approve("alice", testCustody, testAsset, ledger.NewAmount(10)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	h.payments.FailNext(boom)

	_, err := h.engine.Deposit(ctx, "alice", testAsset, ledger.NewAmount(5))
	assertCode(t, err, apperrors.CodeTransferFailed)
	if !errors.Is(err, boom) {
		t.Fatalf("expected ledger cause in %v", err)
	}

	assertBalance(t, h.balance(t, "alice"), 0, 0)
	_, err = h.engine.Account(ctx, "alice")
	assertCode(t, err, apperrors.CodeNotFound)
	page, err := h.engine.Events(ctx, "", 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	for _, evt := range page.Events {
		if evt.Type == eventDeposited {
			t.Fatalf("deposit event survived rollback: %+v", evt)
		}
	}
}

func TestDepositWithoutAllowanceFails(t *testing.T) {
	h := newHarness(t)
	if err := h.payments.Mint("alice", testAsset, ledger.NewAmount(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err := h.engine.Deposit(context.Background(), "alice", testAsset, ledger.NewAmount(5))
	assertCode(t, err, apperrors.CodeTransferFailed)
	assertBalance(t, h.balance(t, "alice"), 0, 0)
}

func TestWithdrawSendsAmountMinusFee(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fund(t, "alice", 10)
	before, err := h.payments.BalanceOf(ctx, "alice", testAsset)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}

	result, err := h.engine.Withdraw(ctx, "alice", testAsset, ledger.NewAmount(5))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.Sent != ledger.NewAmount(4) || result.Fee != ledger.NewAmount(1) {
		t.Fatalf("withdraw result = sent %s fee %s, want 4 and 1", result.Sent, result.Fee)
	}
	assertBalance(t, result.Balance, 5, 0)
	assertBalance(t, h.balance(t, "alice"), 5, 0)

	after, err := h.payments.BalanceOf(ctx, "alice", testAsset)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	want, _ := before.Add(ledger.NewAmount(4))
	if after != want {
		t.Fatalf("external balance = %s, want %s", after, want)
	}
}

func TestWithdrawBoundaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fund(t, "alice", 3)

	_, err := h.engine.Withdraw(ctx, "alice", testAsset, ledger.NewAmount(4))
	assertCode(t, err, apperrors.CodeInsufficientAvailableBalance)
	meta := apperrors.MetadataOf(err)
	if meta["Available"] != "3" || meta["Required"] != "4" {
		t.Fatalf("metadata = %v, want Available 3 Required 4", meta)
	}

	_, err = h.engine.Withdraw(ctx, "alice", testAsset, ledger.NewAmount(1))
	assertCode(t, err, apperrors.CodeAmountBelowFee)
	assertBalance(t, h.balance(t, "alice"), 3, 0)

	if _, err := h.engine.Withdraw(ctx, "alice", testAsset, ledger.NewAmount(3)); err != nil {
		t.Fatalf("withdraw full balance: %v", err)
	}
	assertBalance(t, h.balance(t, "alice"), 0, 0)
}

func TestWithdrawRollsBackOnLedgerFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fund(t, "alice", 5)
	h.payments.FailNext(errors.New("timeout"))

	_, err := h.engine.Withdraw(ctx, "alice", testAsset, ledger.NewAmount(5))
	assertCode(t, err, apperrors.CodeTransferFailed)
	assertBalance(t, h.balance(t, "alice"), 5, 0)
}

func TestWithdrawCannotTouchStake(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 5)
	h.requireStake(t, testAuditType, 3)
	h.reserve(t, "alice", h.createBounty(t, testArtifact, testAuditType))

	_, err := h.engine.Withdraw(context.Background(), "alice", testAsset, ledger.NewAmount(3))
	assertCode(t, err, apperrors.CodeInsufficientAvailableBalance)
	assertBalance(t, h.balance(t, "alice"), 2, 3)
}

func TestBalancesListsEveryAsset(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 2)

	list, err := h.engine.Balances(context.Background(), "alice")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if len(list) != 1 || list[0].Asset != testAsset {
		t.Fatalf("balances = %+v, want one %s entry", list, testAsset)
	}
	assertBalance(t, list[0].Balance, 2, 0)
}
