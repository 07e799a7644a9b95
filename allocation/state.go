/*
state.go - Allocation state and reducer-style transitions

PURPOSE:
  Owns the mutable facts of a split payment: the total amount, which payment
  methods are selected (ordered, max 3), and the per-method amounts. Every
  transition is a pure function from the old state to a new state; a rejected
  edit returns the old state untouched together with the reason.

KEY CONCEPTS:
  - Selection order matters: the first selected method is slot 0, and the
    highest-index slot is the DERIVED slot. Editing any earlier slot
    recomputes the derived slot so the amounts sum to the total exactly.
  - The derived slot is terminal: editing it directly stores the value and
    re-checks conservation, but never cascades into other slots.
  - Conservation invariant: after any accepted edit,
    sum(amounts) <= total. Recomputing transitions make it == total.

FAILURE POLICY:
  Reject, never clamp. An edit that would derive a negative amount or push
  the sum past the total returns ErrAllocationExceeded and the caller keeps
  the previous state, so the user always sees why the edit didn't take.

USAGE:
  st := allocation.NewState()
  st, _ = st.WithTotal(allocation.NewAmount(10000))
  st, _ = st.Select("CARD")
  st, _ = st.Select("CASH")
  st, err = st.SetAmount("CARD", "4000") // CASH derives to 6000

SEE ALSO:
  - payments.go: Final materialization of the breakdown
  - errors.go: Error taxonomy
*/
package allocation

// MaxSelections is the most payment methods a single transaction may split
// across.
const MaxSelections = 3

// State is an immutable snapshot of the allocation. Transitions return a new
// State; the receiver is never modified.
type State struct {
	Total     Amount
	Selection []MethodCode
	Amounts   map[MethodCode]Amount
}

// NewState returns an empty allocation: no total, nothing selected.
func NewState() State {
	return State{Amounts: map[MethodCode]Amount{}}
}

// clone deep-copies the mutable parts so transitions never alias.
func (s State) clone() State {
	next := State{
		Total:     s.Total,
		Selection: make([]MethodCode, len(s.Selection)),
		Amounts:   make(map[MethodCode]Amount, len(s.Amounts)),
	}
	copy(next.Selection, s.Selection)
	for k, v := range s.Amounts {
		next.Amounts[k] = v
	}
	return next
}

// WithTotal replaces the total amount. Existing per-method amounts are NOT
// rebalanced here; the next amount edit or BuildPayments reconciles them.
func (s State) WithTotal(total Amount) (State, error) {
	if !total.IsPositive() {
		return s, ErrInvalidTotal
	}
	next := s.clone()
	next.Total = total
	return next, nil
}

// Select appends code to the selection. Selecting an already-selected code is
// a no-op; a fourth selection is rejected and the state is unchanged.
func (s State) Select(code MethodCode) (State, error) {
	if s.selected(code) {
		return s, nil
	}
	if len(s.Selection) >= MaxSelections {
		return s, ErrTooManySelections
	}
	next := s.clone()
	next.Selection = append(next.Selection, code)
	return next, nil
}

// Deselect removes code from the selection and drops its amount entry.
// Unknown codes are ignored. When one method remains, it implicitly carries
// the full total at submit time; no explicit amount is required.
func (s State) Deselect(code MethodCode) State {
	if !s.selected(code) {
		return s
	}
	next := s.clone()
	for i, c := range next.Selection {
		if c == code {
			next.Selection = append(next.Selection[:i], next.Selection[i+1:]...)
			break
		}
	}
	delete(next.Amounts, code)
	return next
}

// SetAmount records an explicit amount for a selected method from raw
// digit-only input (empty = 0) and recomputes the derived slot.
//
// With two methods selected, the other method always derives the remainder.
// With three, editing slot 0 or 1 derives slot 2; slot 2 is terminal.
// Any edit that would derive a negative amount, or leave the sum above the
// total, is rejected atomically.
func (s State) SetAmount(code MethodCode, raw string) (State, error) {
	if !s.selected(code) {
		return s, ErrMethodNotSelected
	}
	value, err := ParseAmount(raw)
	if err != nil {
		return s, err
	}

	next := s.clone()
	next.Amounts[code] = value

	if derived, ok := next.derivedFor(code); ok {
		remainder := next.Total
		for _, c := range next.Selection {
			if c == derived {
				continue
			}
			remainder = remainder.Sub(next.amountOf(c))
		}
		if remainder.IsNegative() {
			return s, &AllocationExceededError{
				Method:    code,
				Requested: value,
				Total:     s.Total,
				Overrun:   remainder.Neg(),
			}
		}
		next.Amounts[derived] = remainder
	}

	// Conservation re-check before committing. Covers the terminal-slot and
	// single-method paths where nothing was derived.
	if sum(next.Amounts).GreaterThan(next.Total) {
		return s, &AllocationExceededError{
			Method:    code,
			Requested: value,
			Total:     s.Total,
			Overrun:   sum(next.Amounts).Sub(next.Total),
		}
	}
	return next, nil
}

// derivedFor returns the slot recomputed after an explicit edit of code.
// The derived slot is the highest-index slot, unless that is the slot being
// edited (terminal) or fewer than two methods are selected.
func (s State) derivedFor(code MethodCode) (MethodCode, bool) {
	n := len(s.Selection)
	if n < 2 {
		return "", false
	}
	last := s.Selection[n-1]
	if n == 2 {
		// Either slot derives the other.
		if code == last {
			return s.Selection[0], true
		}
		return last, true
	}
	if code == last {
		return "", false
	}
	return last, true
}

// amountOf returns the recorded amount for code, zero if never edited.
func (s State) amountOf(code MethodCode) Amount {
	if v, ok := s.Amounts[code]; ok {
		return v
	}
	return NewAmount(0)
}

func (s State) selected(code MethodCode) bool {
	for _, c := range s.Selection {
		if c == code {
			return true
		}
	}
	return false
}

// Validate checks that the allocation as a whole is submittable: at least one
// method selected, a positive total, and conservation. With a single method,
// a collected amount must equal the total exactly (normally none is
// collected and the method implicitly carries the total).
func (s State) Validate() error {
	if len(s.Selection) == 0 {
		return ErrEmptySelection
	}
	if !s.Total.IsPositive() {
		return ErrInvalidTotal
	}
	if sum(s.Amounts).GreaterThan(s.Total) {
		return ErrAllocationExceeded
	}
	if len(s.Selection) == 1 {
		if v, ok := s.Amounts[s.Selection[0]]; ok && !v.Equal(s.Total) {
			return ErrAmountMismatch
		}
	}
	return nil
}
