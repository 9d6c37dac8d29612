package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// GetStakeRequirement returns the active requirement for auditType.
func (t *tx) GetStakeRequirement(ctx context.Context, auditType string) (bounty.StakeRequirement, error) {
	row := t.sqlTx.QueryRowContext(ctx, `
SELECT audit_type, asset, amount, updated_at FROM stake_requirements WHERE audit_type = ?
`, auditType)
	req, err := scanRequirement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bounty.StakeRequirement{}, storage.ErrNotFound
		}
		return bounty.StakeRequirement{}, fmt.Errorf("get stake requirement: %w", err)
	}
	return req, nil
}

// PutStakeRequirement replaces the requirement for its audit type.
func (t *tx) PutStakeRequirement(ctx context.Context, req bounty.StakeRequirement) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO stake_requirements (audit_type, asset, amount, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(audit_type) DO UPDATE SET
	asset = excluded.asset,
	amount = excluded.amount,
	updated_at = excluded.updated_at
`, req.AuditType, string(req.Asset), req.Amount.String(), toMillis(req.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put stake requirement: %w", err)
	}
	return nil
}

// ListStakeRequirements returns every requirement ordered by audit type.
func (t *tx) ListStakeRequirements(ctx context.Context) ([]bounty.StakeRequirement, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT audit_type, asset, amount, updated_at FROM stake_requirements ORDER BY audit_type
`)
	if err != nil {
		return nil, fmt.Errorf("list stake requirements: %w", err)
	}
	defer rows.Close()

	var out []bounty.StakeRequirement
	for rows.Next() {
		req, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan stake requirement: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stake requirements: %w", err)
	}
	return out, nil
}

func scanRequirement(scan func(dest ...any) error) (bounty.StakeRequirement, error) {
	var (
		req       bounty.StakeRequirement
		asset     string
		amount    string
		updatedAt int64
	)
	if err := scan(&req.AuditType, &asset, &amount, &updatedAt); err != nil {
		return bounty.StakeRequirement{}, err
	}
	parsed, err := parseAmount(amount)
	if err != nil {
		return bounty.StakeRequirement{}, err
	}
	req.Asset = ledger.AssetID(asset)
	req.Amount = parsed
	req.UpdatedAt = fromMillis(updatedAt)
	return req, nil
}

// CreateBounty inserts a bounty and returns its assigned id.
func (t *tx) CreateBounty(ctx context.Context, b bounty.Bounty) (bounty.ID, error) {
	if err := b.Challenge.Validate(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(string(b.Creator)) == "" {
		return 0, fmt.Errorf("creator is required")
	}
	extra, err := encodeMap(b.Challenge.Extra)
	if err != nil {
		return 0, err
	}
	result, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO bounties (creator, artifact_hash, audit_type, extra_json, reward_asset, reward_amount, timeout_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		string(b.Creator),
		b.Challenge.ArtifactHash,
		b.Challenge.AuditType,
		extra,
		string(b.RewardAsset),
		b.RewardAmount.String(),
		nullMillis(b.TimeoutAt),
		toMillis(b.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create bounty: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create bounty id: %w", err)
	}
	return bounty.ID(id), nil
}

const bountyColumns = `id, creator, artifact_hash, audit_type, extra_json, reward_asset, reward_amount, timeout_at, created_at`

// GetBounty returns a bounty with its claims.
func (t *tx) GetBounty(ctx context.Context, id bounty.ID) (bounty.Bounty, error) {
	row := t.sqlTx.QueryRowContext(ctx, `SELECT `+bountyColumns+` FROM bounties WHERE id = ?`, int64(id))
	b, err := scanBounty(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bounty.Bounty{}, storage.ErrNotFound
		}
		return bounty.Bounty{}, fmt.Errorf("get bounty: %w", err)
	}
	if b.Claims, err = t.listClaims(ctx, b.ID); err != nil {
		return bounty.Bounty{}, err
	}
	return b, nil
}

// ListBountiesForPair returns every bounty challenging the pair, by id.
func (t *tx) ListBountiesForPair(ctx context.Context, pair audit.Pair) ([]bounty.Bounty, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT `+bountyColumns+`
FROM bounties
WHERE artifact_hash = ? AND audit_type = ?
ORDER BY id
`, pair.ArtifactID, pair.AuditType)
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}

	var out []bounty.Bounty
	for rows.Next() {
		b, err := scanBounty(rows.Scan)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan bounty: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	_ = rows.Close()

	for i := range out {
		if out[i].Claims, err = t.listClaims(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanBounty(scan func(dest ...any) error) (bounty.Bounty, error) {
	var (
		b           bounty.Bounty
		id          int64
		creator     string
		extra       string
		rewardAsset string
		reward      string
		timeoutAt   sql.NullInt64
		createdAt   int64
	)
	if err := scan(
		&id,
		&creator,
		&b.Challenge.ArtifactHash,
		&b.Challenge.AuditType,
		&extra,
		&rewardAsset,
		&reward,
		&timeoutAt,
		&createdAt,
	); err != nil {
		return bounty.Bounty{}, err
	}
	var err error
	if b.Challenge.Extra, err = decodeMap(extra); err != nil {
		return bounty.Bounty{}, err
	}
	if b.RewardAmount, err = parseAmount(reward); err != nil {
		return bounty.Bounty{}, err
	}
	b.ID = bounty.ID(id)
	b.Creator = account.ID(creator)
	b.RewardAsset = ledger.AssetID(rewardAsset)
	b.TimeoutAt = fromNullMillis(timeoutAt)
	b.CreatedAt = fromMillis(createdAt)
	return b, nil
}

// AppendClaim records an accepted claim on a bounty.
func (t *tx) AppendClaim(ctx context.Context, id bounty.ID, claim bounty.Claim) error {
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO bounty_claims (bounty_id, claimant, claimed_at) VALUES (?, ?, ?)
`, int64(id), string(claim.Claimant), toMillis(claim.ClaimedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append claim: %w", err)
	}
	return nil
}

func (t *tx) listClaims(ctx context.Context, id bounty.ID) ([]bounty.Claim, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT claimant, claimed_at FROM bounty_claims WHERE bounty_id = ? ORDER BY claimed_at, claimant
`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []bounty.Claim
	for rows.Next() {
		var (
			claimant  string
			claimedAt int64
		)
		if err := rows.Scan(&claimant, &claimedAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, bounty.Claim{Claimant: account.ID(claimant), ClaimedAt: fromMillis(claimedAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return out, nil
}

const lockColumns = `bounty_id, claimant, stake_asset, stake_amount, locked_at, expires_at`

// GetLock returns the lock row of a bounty whether or not it has expired.
func (t *tx) GetLock(ctx context.Context, id bounty.ID) (bounty.Lock, error) {
	row := t.sqlTx.QueryRowContext(ctx, `SELECT `+lockColumns+` FROM bounty_locks WHERE bounty_id = ?`, int64(id))
	lock, err := scanLock(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bounty.Lock{}, storage.ErrNotFound
		}
		return bounty.Lock{}, fmt.Errorf("get lock: %w", err)
	}
	return lock, nil
}

// PutLock inserts a lock. The bounty_id primary key rejects a second row.
func (t *tx) PutLock(ctx context.Context, lock bounty.Lock) error {
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO bounty_locks (`+lockColumns+`) VALUES (?, ?, ?, ?, ?, ?)
`,
		int64(lock.BountyID),
		string(lock.Claimant),
		string(lock.StakeAsset),
		lock.StakeAmount.String(),
		toMillis(lock.LockedAt),
		toMillis(lock.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put lock: %w", err)
	}
	return nil
}

// DeleteLock removes a bounty's lock. Deleting a missing lock is a no-op.
func (t *tx) DeleteLock(ctx context.Context, id bounty.ID) error {
	if _, err := t.sqlTx.ExecContext(ctx, `DELETE FROM bounty_locks WHERE bounty_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

// ListExpiredLocks returns locks that expired before now and whose bounty
// has no timely vote, oldest first.
func (t *tx) ListExpiredLocks(ctx context.Context, now time.Time, limit int) ([]bounty.Lock, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT `+lockColumns+`
FROM bounty_locks
WHERE expires_at < ?
	AND NOT EXISTS (SELECT 1 FROM audit_records WHERE audit_records.bounty_id = bounty_locks.bounty_id AND audit_records.late = 0)
ORDER BY expires_at, bounty_id
LIMIT ?
`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired locks: %w", err)
	}
	defer rows.Close()

	var out []bounty.Lock
	for rows.Next() {
		lock, err := scanLock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		out = append(out, lock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired locks: %w", err)
	}
	return out, nil
}

func scanLock(scan func(dest ...any) error) (bounty.Lock, error) {
	var (
		lock      bounty.Lock
		id        int64
		claimant  string
		asset     string
		amount    string
		lockedAt  int64
		expiresAt int64
	)
	if err := scan(&id, &claimant, &asset, &amount, &lockedAt, &expiresAt); err != nil {
		return bounty.Lock{}, err
	}
	parsed, err := parseAmount(amount)
	if err != nil {
		return bounty.Lock{}, err
	}
	lock.BountyID = bounty.ID(id)
	lock.Claimant = account.ID(claimant)
	lock.StakeAsset = ledger.AssetID(asset)
	lock.StakeAmount = parsed
	lock.LockedAt = fromMillis(lockedAt)
	lock.ExpiresAt = fromMillis(expiresAt)
	return lock, nil
}
