/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All engine error types in one place. Callers match with errors.Is();
  structured variants carry the numbers needed for a useful message.

ERROR CATEGORIES:
  1. Edit errors - A single edit was rejected; state is unchanged
  2. Validation errors - The state as a whole is not submittable

USAGE:
  next, err := state.SetAmount("CARD", "11000")
  if errors.Is(err, allocation.ErrAllocationExceeded) {
      // surface the message, keep editing the old state
  }

SEE ALSO:
  - state.go: Produces these errors
  - amount.go: InvalidAmountError
*/
package allocation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAllocationExceeded is returned when an edit would push the sum of
	// per-method amounts past the total. The edit is rejected in place.
	ErrAllocationExceeded = errors.New("allocation exceeds total amount")

	// ErrInvalidAmount is returned when raw input is not a non-negative integer.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTooManySelections is returned on an attempt to select a fourth method.
	ErrTooManySelections = errors.New("at most 3 payment methods may be selected")

	// ErrEmptySelection is returned at validation time when no method is selected.
	ErrEmptySelection = errors.New("no payment method selected")

	// ErrInvalidTotal is returned when the total is not a positive integer.
	ErrInvalidTotal = errors.New("total amount must be a positive integer")

	// ErrMethodNotSelected is returned when an amount edit targets a method
	// that is not part of the current selection.
	ErrMethodNotSelected = errors.New("payment method is not selected")

	// ErrAmountMismatch is returned at validation time when a sole method
	// carries an explicit amount that differs from the total.
	ErrAmountMismatch = errors.New("single-method amount must equal the total")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AllocationExceededError reports by how much a rejected edit overran the total.
type AllocationExceededError struct {
	Method    MethodCode
	Requested Amount
	Total     Amount
	Overrun   Amount
}

func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf("allocation exceeded: setting %s to %s overruns total %s by %s",
		e.Method, e.Requested, e.Total, e.Overrun)
}

func (e *AllocationExceededError) Unwrap() error {
	return ErrAllocationExceeded
}

// IsEditError returns true if the error rejects a single edit (as opposed to
// failing whole-state validation). Edit errors leave state untouched.
func IsEditError(err error) bool {
	return errors.Is(err, ErrAllocationExceeded) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrTooManySelections) ||
		errors.Is(err, ErrMethodNotSelected)
}
