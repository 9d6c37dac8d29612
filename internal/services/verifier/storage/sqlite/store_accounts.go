package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// GetAccount returns one verifier profile.
func (t *tx) GetAccount(ctx context.Context, id account.ID) (account.Account, error) {
	var (
		a             account.Account
		accountID     string
		earnings      string
		verifications int64
		createdAt     int64
		updatedAt     int64
	)
	err := t.sqlTx.QueryRowContext(ctx, `
SELECT id, reputation_score, total_earnings, total_verifications, created_at, updated_at
FROM accounts
WHERE id = ?
`, string(id)).Scan(&accountID, &a.ReputationScore, &earnings, &verifications, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, storage.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	if a.TotalEarnings, err = parseAmount(earnings); err != nil {
		return account.Account{}, err
	}
	a.ID = account.ID(accountID)
	a.TotalVerifications = uint64(verifications)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// PutAccount upserts a verifier profile.
func (t *tx) PutAccount(ctx context.Context, a account.Account) error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("account id is required")
	}
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO accounts (id, reputation_score, total_earnings, total_verifications, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	reputation_score = excluded.reputation_score,
	total_earnings = excluded.total_earnings,
	total_verifications = excluded.total_verifications,
	updated_at = excluded.updated_at
`,
		string(a.ID),
		a.ReputationScore,
		a.TotalEarnings.String(),
		int64(a.TotalVerifications),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// GetBalance returns the account's bucket for asset, zero when absent.
func (t *tx) GetBalance(ctx context.Context, id account.ID, asset ledger.AssetID) (ledger.Balance, error) {
	var available, staked string
	err := t.sqlTx.QueryRowContext(ctx, `
SELECT available, staked FROM balances WHERE account_id = ? AND asset = ?
`, string(id), string(asset)).Scan(&available, &staked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Balance{}, nil
		}
		return ledger.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return scanBalance(available, staked)
}

// PutBalance upserts the account's bucket for asset.
func (t *tx) PutBalance(ctx context.Context, id account.ID, asset ledger.AssetID, balance ledger.Balance) error {
	if strings.TrimSpace(string(asset)) == "" {
		return fmt.Errorf("asset is required")
	}
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO balances (account_id, asset, available, staked, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(account_id, asset) DO UPDATE SET
	available = excluded.available,
	staked = excluded.staked,
	updated_at = excluded.updated_at
`,
		string(id),
		string(asset),
		balance.Available.String(),
		balance.Staked.String(),
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put balance: %w", err)
	}
	return nil
}

// ListBalances returns every bucket of an account ordered by asset.
func (t *tx) ListBalances(ctx context.Context, id account.ID) ([]storage.AssetBalance, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT asset, available, staked FROM balances WHERE account_id = ? ORDER BY asset
`, string(id))
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []storage.AssetBalance
	for rows.Next() {
		var asset, available, staked string
		if err := rows.Scan(&asset, &available, &staked); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balance, err := scanBalance(available, staked)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.AssetBalance{Asset: ledger.AssetID(asset), Balance: balance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return out, nil
}

func scanBalance(available, staked string) (ledger.Balance, error) {
	var (
		b   ledger.Balance
		err error
	)
	if b.Available, err = parseAmount(available); err != nil {
		return ledger.Balance{}, err
	}
	if b.Staked, err = parseAmount(staked); err != nil {
		return ledger.Balance{}, err
	}
	return b, nil
}

// GetSetting returns a named value or storage.ErrNotFound.
func (t *tx) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := t.sqlTx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// PutSetting upserts a named value.
func (t *tx) PutSetting(ctx context.Context, key, value string) error {
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

// GetSlashed returns the slashed total for asset, zero when absent.
func (t *tx) GetSlashed(ctx context.Context, asset ledger.AssetID) (ledger.Amount, error) {
	var total string
	err := t.sqlTx.QueryRowContext(ctx, `SELECT slashed FROM treasury WHERE asset = ?`, string(asset)).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Zero, nil
		}
		return ledger.Amount{}, fmt.Errorf("get slashed total: %w", err)
	}
	return parseAmount(total)
}

// PutSlashed upserts the slashed total for asset.
func (t *tx) PutSlashed(ctx context.Context, asset ledger.AssetID, total ledger.Amount) error {
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO treasury (asset, slashed) VALUES (?, ?)
ON CONFLICT(asset) DO UPDATE SET slashed = excluded.slashed
`, string(asset), total.String())
	if err != nil {
		return fmt.Errorf("put slashed total: %w", err)
	}
	return nil
}

// ListSlashed returns every per-asset slashed total ordered by asset.
func (t *tx) ListSlashed(ctx context.Context) ([]storage.AssetTotal, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `SELECT asset, slashed FROM treasury ORDER BY asset`)
	if err != nil {
		return nil, fmt.Errorf("list slashed totals: %w", err)
	}
	defer rows.Close()

	var out []storage.AssetTotal
	for rows.Next() {
		var asset, total string
		if err := rows.Scan(&asset, &total); err != nil {
			return nil, fmt.Errorf("scan slashed total: %w", err)
		}
		amount, err := parseAmount(total)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.AssetTotal{Asset: ledger.AssetID(asset), Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slashed totals: %w", err)
	}
	return out, nil
}
