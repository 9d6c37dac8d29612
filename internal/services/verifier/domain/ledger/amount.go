package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow indicates an addition exceeded 256 bits.
	ErrOverflow = errors.New("amount overflow")
	// ErrUnderflow indicates a subtraction would go below zero.
	ErrUnderflow = errors.New("amount underflow")
)

// Amount is a non-negative token quantity in base units.
type Amount struct {
	v uint256.Int
}

// Zero is the zero amount.
var Zero = Amount{}

// NewAmount returns an Amount holding v.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 amount. Empty input is rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("amount is required")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount in base 10.
func (a Amount) String() string {
	return a.v.Dec()
}

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0 or +1 comparing a to b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// Less reports a < b.
func (a Amount) Less(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Add returns a + b.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, ErrUnderflow
	}
	return out, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
