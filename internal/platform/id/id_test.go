package id

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var eventIDPattern = regexp.MustCompile(`^[a-z2-7]{26}$`)

func TestNewIDIsURLSafe(t *testing.T) {
	got, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if !eventIDPattern.MatchString(got) {
		t.Fatalf("id %q is not 26 lowercase base32 characters", got)
	}
}

func TestNewIDDecodesToRandomUUID(t *testing.T) {
	got, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	raw, err := encoding.DecodeString(strings.ToUpper(got))
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	value, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from bytes: %v", err)
	}
	if value.Version() != 4 || value.Variant() != uuid.RFC4122 {
		t.Fatalf("uuid %s has version %d variant %s, want random RFC 4122", value, value.Version(), value.Variant())
	}
}

// Event rows are keyed by id, so a batch written in one transaction must
// never collide.
func TestNewIDUniqueAcrossEventBatch(t *testing.T) {
	const batch = 10000
	seen := make(map[string]struct{}, batch)
	for i := 0; i < batch; i++ {
		got, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("duplicate id %q after %d ids", got, i)
		}
		seen[got] = struct{}{}
	}
}
