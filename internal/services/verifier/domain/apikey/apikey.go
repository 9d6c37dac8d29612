// Package apikey issues bearer credentials that let unattended agents reserve
// bounties on a verifier's behalf.
//
// Keys are "vsk_" followed by the base58 encoding of 32 random bytes. Only
// the BLAKE3 digest of a key is ever stored.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
)

// Prefix marks verifier secret keys.
const Prefix = "vsk_"

const secretBytes = 32

// ErrMalformed reports a string that cannot be a key issued here.
var ErrMalformed = errors.New("malformed api key")

// Key is the stored metadata of an issued key.
type Key struct {
	Hash      string
	Hint      string
	Owner     account.ID
	CreatedAt time.Time
	RevokedAt time.Time
	Active    bool
}

// Revoke marks the key permanently inactive.
func (k Key) Revoke(now time.Time) Key {
	if !k.Active {
		return k
	}
	k.Active = false
	k.RevokedAt = now
	return k
}

// Generate creates a new key for owner. The plaintext is returned once and
// never persisted.
func Generate(owner account.ID, now time.Time) (string, Key, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", Key{}, fmt.Errorf("read random: %w", err)
	}
	plaintext := Prefix + base58.Encode(buf)
	return plaintext, Key{
		Hash:      Hash(plaintext),
		Hint:      Hint(plaintext),
		Owner:     owner,
		CreatedAt: now,
		Active:    true,
	}, nil
}

// Parse checks the key shape without touching storage.
func Parse(plaintext string) error {
	body, ok := strings.CutPrefix(plaintext, Prefix)
	if !ok || body == "" {
		return ErrMalformed
	}
	raw, err := base58.Decode(body)
	if err != nil || len(raw) != secretBytes {
		return ErrMalformed
	}
	return nil
}

// Hash returns the hex BLAKE3 digest used as the storage key.
func Hash(plaintext string) string {
	sum := blake3.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Hint returns a short display form safe to show in listings.
func Hint(plaintext string) string {
	const tail = 4
	if len(plaintext) <= len(Prefix)+tail {
		return Prefix + "…"
	}
	return Prefix + "…" + plaintext[len(plaintext)-tail:]
}
