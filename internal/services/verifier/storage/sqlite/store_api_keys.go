package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/apikey"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// PutAPIKey inserts a newly issued key.
func (t *tx) PutAPIKey(ctx context.Context, key apikey.Key) error {
	if strings.TrimSpace(key.Hash) == "" {
		return fmt.Errorf("api key hash is required")
	}
	if strings.TrimSpace(string(key.Owner)) == "" {
		return fmt.Errorf("api key owner is required")
	}
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO api_keys (hash, hint, owner, active, created_at, revoked_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		key.Hash,
		key.Hint,
		string(key.Owner),
		boolToInt(key.Active),
		toMillis(key.CreatedAt),
		nullMillis(key.RevokedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put api key: %w", err)
	}
	return nil
}

// GetAPIKey returns key metadata by digest.
func (t *tx) GetAPIKey(ctx context.Context, hash string) (apikey.Key, error) {
	row := t.sqlTx.QueryRowContext(ctx, `
SELECT hash, hint, owner, active, created_at, revoked_at FROM api_keys WHERE hash = ?
`, hash)
	key, err := scanAPIKey(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apikey.Key{}, storage.ErrNotFound
		}
		return apikey.Key{}, fmt.Errorf("get api key: %w", err)
	}
	return key, nil
}

// UpdateAPIKey persists the active flag and revocation time of a key.
func (t *tx) UpdateAPIKey(ctx context.Context, key apikey.Key) error {
	result, err := t.sqlTx.ExecContext(ctx, `
UPDATE api_keys SET active = ?, revoked_at = ? WHERE hash = ?
`, boolToInt(key.Active), nullMillis(key.RevokedAt), key.Hash)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListAPIKeys returns an owner's keys, newest first.
func (t *tx) ListAPIKeys(ctx context.Context, owner account.ID) ([]apikey.Key, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT hash, hint, owner, active, created_at, revoked_at
FROM api_keys
WHERE owner = ?
ORDER BY created_at DESC, hash
`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var out []apikey.Key
	for rows.Next() {
		key, err := scanAPIKey(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return out, nil
}

func scanAPIKey(scan func(dest ...any) error) (apikey.Key, error) {
	var (
		key       apikey.Key
		owner     string
		active    int
		createdAt int64
		revokedAt sql.NullInt64
	)
	if err := scan(&key.Hash, &key.Hint, &owner, &active, &createdAt, &revokedAt); err != nil {
		return apikey.Key{}, err
	}
	key.Owner = account.ID(owner)
	key.Active = active != 0
	key.CreatedAt = fromMillis(createdAt)
	key.RevokedAt = fromNullMillis(revokedAt)
	return key, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
