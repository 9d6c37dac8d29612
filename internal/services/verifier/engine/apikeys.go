package engine

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/apikey"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// GenerateAPIKey issues a new key for the caller. The plaintext is returned
// once; only its digest is stored.
func (e *Engine) GenerateAPIKey(ctx context.Context, caller account.ID) (string, apikey.Key, error) {
	if err := requireCaller(caller); err != nil {
		return "", apikey.Key{}, err
	}
	var (
		plaintext string
		key       apikey.Key
	)
	err := e.update(ctx, "GenerateAPIKey", func(ctx context.Context, tx storage.Tx) error {
		var err error
		plaintext, key, err = apikey.Generate(caller, e.now())
		if err != nil {
			return err
		}
		if err := tx.PutAPIKey(ctx, key); err != nil {
			return err
		}
		return e.appendEvent(ctx, tx, eventRecord{
			Type:      eventAPIKeyGenerated,
			AccountID: caller,
			Payload:   map[string]any{"hint": key.Hint},
		})
	})
	if err != nil {
		return "", apikey.Key{}, err
	}
	return plaintext, key, nil
}

// RevokeAPIKey permanently deactivates a key owned by the caller. Revoking
// an already revoked key is a no-op.
func (e *Engine) RevokeAPIKey(ctx context.Context, caller account.ID, plaintext string) (apikey.Key, error) {
	var key apikey.Key
	err := e.update(ctx, "RevokeAPIKey", func(ctx context.Context, tx storage.Tx) error {
		var err error
		key, err = lookupKey(ctx, tx, plaintext)
		if err != nil {
			return err
		}
		if key.Owner != caller {
			return apperrors.New(apperrors.CodeUnauthorized, "caller does not own the api key")
		}
		if !key.Active {
			return nil
		}
		key = key.Revoke(e.now())
		if err := tx.UpdateAPIKey(ctx, key); err != nil {
			return err
		}
		// Evict while still serialized so no validator re-caches the key.
		e.keys.Remove(key.Hash)
		return e.appendEvent(ctx, tx, eventRecord{
			Type:      eventAPIKeyRevoked,
			AccountID: caller,
			Payload:   map[string]any{"hint": key.Hint},
		})
	})
	if err != nil {
		return apikey.Key{}, err
	}
	return key, nil
}

// ValidateAPIKey returns the owner of an active key. Unknown and revoked
// keys fail with distinct codes.
func (e *Engine) ValidateAPIKey(ctx context.Context, plaintext string) (account.ID, error) {
	if owner, ok := e.cachedKey(plaintext); ok {
		return owner, nil
	}
	var owner account.ID
	err := e.update(ctx, "ValidateAPIKey", func(ctx context.Context, tx storage.Tx) error {
		var err error
		owner, err = e.validateKey(ctx, tx, plaintext)
		return err
	})
	return owner, err
}

// APIKeys lists the caller's keys. Secrets are never returned.
func (e *Engine) APIKeys(ctx context.Context, caller account.ID) ([]apikey.Key, error) {
	var result []apikey.Key
	err := e.view(ctx, "APIKeys", func(ctx context.Context, tx storage.Tx) error {
		var err error
		result, err = tx.ListAPIKeys(ctx, caller)
		return err
	})
	return result, err
}

func (e *Engine) cachedKey(plaintext string) (account.ID, bool) {
	value, ok := e.keys.Get(apikey.Hash(plaintext))
	if !ok {
		return "", false
	}
	owner, ok := value.(account.ID)
	return owner, ok
}

// validateKey must run while the engine mutex is held.
func (e *Engine) validateKey(ctx context.Context, tx storage.Tx, plaintext string) (account.ID, error) {
	if owner, ok := e.cachedKey(plaintext); ok {
		return owner, nil
	}
	key, err := lookupKey(ctx, tx, plaintext)
	if err != nil {
		return "", err
	}
	if !key.Active {
		return "", apperrors.New(apperrors.CodeAPIKeyRevoked, "api key revoked")
	}
	e.keys.Add(key.Hash, key.Owner)
	return key.Owner, nil
}

func lookupKey(ctx context.Context, tx storage.Tx, plaintext string) (apikey.Key, error) {
	if err := apikey.Parse(plaintext); err != nil {
		return apikey.Key{}, apperrors.Wrap(apperrors.CodeInvalidAPIKey, "invalid api key", err)
	}
	key, err := tx.GetAPIKey(ctx, apikey.Hash(plaintext))
	if errors.Is(err, storage.ErrNotFound) {
		return apikey.Key{}, apperrors.New(apperrors.CodeInvalidAPIKey, "invalid api key")
	}
	return key, err
}
