// Package cursor provides opaque pagination tokens over sequence-ordered
// records such as the audit event log.
package cursor

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Cursor represents the internal state of a forward pagination cursor.
type Cursor struct {
	// Seq is the last sequence number already returned; the next page starts
	// strictly after it.
	Seq uint64 `json:"seq"`
	// FilterHash ensures tokens are invalidated if the filter changes.
	FilterHash string `json:"filter_hash,omitempty"`
}

// New creates a cursor positioned after lastSeq for the given filter.
func New(lastSeq uint64, filter string) Cursor {
	return Cursor{Seq: lastSeq, FilterHash: HashFilter(filter)}
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque token to a cursor.
// Returns an error if the token is invalid or malformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	return c, nil
}

// HashFilter computes a short hash of the filter string for cursor validation.
// Returns empty string for empty filter.
func HashFilter(filter string) string {
	if filter == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(filter))
	return hex.EncodeToString(sum[:8])
}

// ValidateFilter checks that the cursor was issued for the current filter.
func ValidateFilter(c Cursor, currentFilter string) error {
	if c.FilterHash != HashFilter(currentFilter) {
		return fmt.Errorf("filter changed since cursor was created")
	}
	return nil
}

// Resume decodes token and validates it against filter, returning the
// sequence to continue after. An empty token starts from the beginning.
func Resume(token, filter string) (uint64, error) {
	if token == "" {
		return 0, nil
	}
	c, err := Decode(token)
	if err != nil {
		return 0, err
	}
	if err := ValidateFilter(c, filter); err != nil {
		return 0, err
	}
	return c.Seq, nil
}
