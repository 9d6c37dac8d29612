// Package engine implements the verifier stake ledger, bounty reservation
// locks and N-of-M consensus finality.
//
// The engine is a single writer. Every mutating operation holds the engine
// mutex and runs inside one storage transaction: it validates, tentatively
// mutates, calls the payment ledger when funds move, and commits only when
// that call succeeds. Readers use separate transactions and never observe a
// half-applied operation.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/platform/id"
	platformotel "github.com/louisbranch/verifier.space/internal/platform/otel"
	"github.com/louisbranch/verifier.space/internal/platform/timeouts"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/payment"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

const (
	// DefaultLockDuration is how long a reservation stays exclusive.
	DefaultLockDuration = 72 * time.Hour
	// DefaultConsensusThreshold is the number of matching votes that
	// finalizes a pair.
	DefaultConsensusThreshold = 5
	// DefaultPoolSize is the configured verifier pool per pair.
	DefaultPoolSize = 9
	// DefaultReputationReward is added on every stake release.
	DefaultReputationReward = 1
	// DefaultReputationPenalty is subtracted on every slash.
	DefaultReputationPenalty = 10
	// DefaultAPIKeyCacheSize bounds the validated-key cache.
	DefaultAPIKeyCacheSize = 1024
)

const settingOwner = "owner"

// Options configures an Engine. Zero values select the defaults above.
type Options struct {
	// Owner is persisted on first start. A persisted owner always wins.
	Owner account.ID
	// EscrowAccounts may create bounties in addition to the owner.
	EscrowAccounts []account.ID
	// Custody is the payment ledger account holding deposited stake.
	Custody account.ID

	LockDuration      time.Duration
	Threshold         audit.Threshold
	ReputationReward  int
	ReputationPenalty int
	LedgerTimeout     time.Duration
	APIKeyCacheSize   int

	Clock   func() time.Time
	Logger  zerolog.Logger
	Metrics Metrics
	Tracer  trace.Tracer
}

func (o Options) withDefaults() Options {
	if o.LockDuration <= 0 {
		o.LockDuration = DefaultLockDuration
	}
	if o.Threshold == (audit.Threshold{}) {
		o.Threshold = audit.Threshold{Required: DefaultConsensusThreshold, PoolSize: DefaultPoolSize}
	}
	if o.ReputationReward == 0 {
		o.ReputationReward = DefaultReputationReward
	}
	if o.ReputationPenalty == 0 {
		o.ReputationPenalty = DefaultReputationPenalty
	}
	if o.LedgerTimeout <= 0 {
		o.LedgerTimeout = timeouts.LedgerCall
	}
	if o.APIKeyCacheSize <= 0 {
		o.APIKeyCacheSize = DefaultAPIKeyCacheSize
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Metrics == nil {
		o.Metrics = NewNoopCollector()
	}
	if o.Tracer == nil {
		o.Tracer = platformotel.Tracer("github.com/louisbranch/verifier.space/internal/services/verifier/engine")
	}
	return o
}

func (o Options) validate() error {
	if strings.TrimSpace(string(o.Custody)) == "" {
		return fmt.Errorf("custody account is required")
	}
	if err := o.Threshold.Validate(); err != nil {
		return err
	}
	if o.ReputationReward < 0 || o.ReputationPenalty < 0 {
		return fmt.Errorf("reputation adjustments must not be negative")
	}
	return nil
}

// Engine is the verifier state machine.
type Engine struct {
	mu       sync.Mutex
	store    storage.Store
	payments payment.Ledger
	opts     Options
	escrow   map[account.ID]struct{}
	keys     *lru.Cache
	log      zerolog.Logger
}

// New builds an engine over store and payments and bootstraps the owner.
func New(ctx context.Context, store storage.Store, payments payment.Ledger, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment ledger is required")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	keys, err := lru.New(opts.APIKeyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("api key cache: %w", err)
	}
	escrow := make(map[account.ID]struct{}, len(opts.EscrowAccounts))
	for _, acct := range opts.EscrowAccounts {
		escrow[acct] = struct{}{}
	}

	e := &Engine{
		store:    store,
		payments: payments,
		opts:     opts,
		escrow:   escrow,
		keys:     keys,
		log:      opts.Logger,
	}
	if err := e.bootstrapOwner(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) now() time.Time {
	return e.opts.Clock().UTC()
}

// update runs fn as one serialized, traced, transactional operation.
func (e *Engine) update(ctx context.Context, op string, fn func(context.Context, storage.Tx) error) error {
	ctx, span := e.opts.Tracer.Start(ctx, "engine."+op)
	defer span.End()
	started := time.Now()

	e.mu.Lock()
	err := e.store.Update(ctx, func(tx storage.Tx) error {
		return fn(ctx, tx)
	})
	e.mu.Unlock()

	e.observe(span, op, started, err)
	return err
}

// view runs fn in a read transaction.
func (e *Engine) view(ctx context.Context, op string, fn func(context.Context, storage.Tx) error) error {
	ctx, span := e.opts.Tracer.Start(ctx, "engine."+op)
	defer span.End()
	started := time.Now()

	err := e.store.View(ctx, func(tx storage.Tx) error {
		return fn(ctx, tx)
	})
	e.observe(span, op, started, err)
	return err
}

func (e *Engine) observe(span trace.Span, op string, started time.Time, err error) {
	code := "OK"
	if err != nil {
		code = string(apperrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
	}
	span.SetAttributes(attribute.String("verifier.result_code", code))
	e.opts.Metrics.OperationCompleted(op, code, time.Since(started))
}

// callLedger bounds one payment ledger call and maps failures to
// TRANSFER_FAILED, keeping the ledger error as the cause.
func (e *Engine) callLedger(ctx context.Context, direction string, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.LedgerTimeout)
	defer cancel()

	if err := call(ctx); err != nil {
		e.opts.Metrics.TransferFailed(direction)
		e.log.Warn().Err(err).Str("direction", direction).Msg("payment ledger call failed")
		return apperrors.WrapWithMetadata(apperrors.CodeTransferFailed, "payment ledger "+direction+" failed", map[string]string{
			"Reason": err.Error(),
		}, err)
	}
	return nil
}

// eventRecord is the subset of storage.Event an operation fills in.
type eventRecord struct {
	Type      string
	Pair      audit.Pair
	BountyID  bounty.ID
	AccountID account.ID
	Payload   map[string]any
}

const (
	eventDeposited        = "balance.deposited"
	eventWithdrawn        = "balance.withdrawn"
	eventRequirementSet   = "stake_requirement.set"
	eventBountyCreated    = "bounty.created"
	eventBountyReserved   = "bounty.reserved"
	eventStakeReleased    = "stake.released"
	eventStakeSlashed     = "stake.slashed"
	eventVoteFiled        = "vote.filed"
	eventVoteLate         = "vote.late"
	eventOutcomeFinalized = "outcome.finalized"
	eventAPIKeyGenerated  = "api_key.generated"
	eventAPIKeyRevoked    = "api_key.revoked"
	eventOwnerTransferred = "owner.transferred"
	eventLedgerMinted     = "ledger.minted"
	eventLedgerApproved   = "ledger.approved"
)

func (e *Engine) appendEvent(ctx context.Context, tx storage.Tx, rec eventRecord) error {
	eventID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	payload := "{}"
	if len(rec.Payload) > 0 {
		data, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", rec.Type, err)
		}
		payload = string(data)
	}
	_, err = tx.AppendEvent(ctx, storage.Event{
		ID:          eventID,
		Type:        rec.Type,
		ArtifactID:  rec.Pair.ArtifactID,
		AuditType:   rec.Pair.AuditType,
		BountyID:    rec.BountyID,
		AccountID:   rec.AccountID,
		PayloadJSON: payload,
		CreatedAt:   e.now(),
	})
	return err
}

// ensureAccount returns the caller's profile, creating it on first use.
func (e *Engine) ensureAccount(ctx context.Context, tx storage.Tx, acct account.ID, now time.Time) (account.Account, error) {
	existing, err := tx.GetAccount(ctx, acct)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return account.Account{}, err
	}
	created := account.New(acct, now)
	if err := tx.PutAccount(ctx, created); err != nil {
		return account.Account{}, err
	}
	return created, nil
}

func requireCaller(caller account.ID) error {
	if strings.TrimSpace(string(caller)) == "" {
		return invalidArgument("caller is required")
	}
	return nil
}

func requirePositive(amount ledger.Amount) error {
	if amount.IsZero() {
		return invalidArgument("amount must be greater than zero")
	}
	return nil
}

func invalidArgument(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, reason, map[string]string{"Reason": reason})
}

func bountyError(code apperrors.Code, bountyID bounty.ID, message string) error {
	return apperrors.WithMetadata(code, message, map[string]string{"BountyID": formatBountyID(bountyID)})
}

func formatBountyID(bountyID bounty.ID) string {
	return strconv.FormatUint(uint64(bountyID), 10)
}

// balanceError maps ledger arithmetic failures to engine codes.
func balanceError(err error, balance ledger.Balance, required ledger.Amount) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientAvailable):
		return apperrors.WrapWithMetadata(apperrors.CodeInsufficientAvailableBalance, "insufficient available balance", map[string]string{
			"Available": balance.Available.String(),
			"Required":  required.String(),
		}, err)
	case errors.Is(err, ledger.ErrInsufficientStaked):
		return apperrors.Wrap(apperrors.CodeInsufficientStakedBalance, "insufficient staked balance", err)
	case errors.Is(err, ledger.ErrOverflow):
		return apperrors.Wrap(apperrors.CodeAmountOverflow, "amount overflow", err)
	case errors.Is(err, ledger.ErrZeroAmount):
		return invalidArgument("amount must be greater than zero")
	default:
		return err
	}
}
