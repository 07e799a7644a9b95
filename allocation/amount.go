/*
amount.go - Whole-unit currency amounts

PURPOSE:
  Amount is the money type used throughout the engine. Transactions in this
  system are denominated in whole currency units (no minor units), so every
  Amount carries the invariant that its value is a non-negative integer.

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so arithmetic never drifts
  2. Integer invariant: Constructors and parsing reject fractional values
  3. JSON: Marshals as a bare integer, matching the wire contract

USAGE:
  total, err := allocation.ParseAmount("12000")
  half := allocation.NewAmount(6000)
  rest := total.Sub(half)

SEE ALSO:
  - state.go: Conservation arithmetic over Amounts
  - errors.go: ErrInvalidAmount
*/
package allocation

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative whole-unit currency quantity.
type Amount struct {
	value decimal.Decimal
}

// NewAmount creates an Amount from a whole number of currency units.
// Negative input is clamped by the caller's validation path; NewAmount
// itself is only used with known-good values.
func NewAmount(units int64) Amount {
	return Amount{value: decimal.NewFromInt(units)}
}

// ParseAmount parses raw digit-only input into an Amount.
// The empty string parses to zero (an untouched input field).
// Anything that is not a plain run of ASCII digits is rejected.
func ParseAmount(raw string) (Amount, error) {
	if raw == "" {
		return Amount{value: decimal.Zero}, nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return Amount{}, &InvalidAmountError{Raw: raw}
		}
	}
	units, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Only possible failure left is overflow.
		return Amount{}, &InvalidAmountError{Raw: raw}
	}
	return NewAmount(units), nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Neg() Amount               { return Amount{value: a.value.Neg()} }
func (a Amount) Sub(b Amount) Amount       { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) IsNegative() bool          { return a.value.IsNegative() }
func (a Amount) IsZero() bool              { return a.value.IsZero() }
func (a Amount) IsPositive() bool          { return a.value.IsPositive() }
func (a Amount) Equal(b Amount) bool       { return a.value.Equal(b.value) }
func (a Amount) GreaterThan(b Amount) bool { return a.value.GreaterThan(b.value) }
func (a Amount) LessThan(b Amount) bool    { return a.value.LessThan(b.value) }

// Units returns the amount as a whole number of currency units.
func (a Amount) Units() int64 {
	return a.value.IntPart()
}

func (a Amount) String() string {
	return a.value.String()
}

// MarshalJSON emits the amount as a bare integer.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts a bare integer. Fractional or negative values are
// rejected so a malformed payload never enters the engine.
func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return &InvalidAmountError{Raw: string(data)}
	}
	if !d.IsInteger() || d.IsNegative() {
		return &InvalidAmountError{Raw: string(data)}
	}
	a.value = d
	return nil
}

// sum adds a set of amounts; used by conservation checks.
func sum(amounts map[MethodCode]Amount) Amount {
	total := Amount{value: decimal.Zero}
	for _, v := range amounts {
		total = total.Add(v)
	}
	return total
}

// InvalidAmountError reports raw input that could not be parsed as a
// non-negative whole-unit amount.
type InvalidAmountError struct {
	Raw string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: must be a non-negative integer", e.Raw)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}
