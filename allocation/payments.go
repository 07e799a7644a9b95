/*
payments.go - Final materialization of the payment breakdown

PURPOSE:
  Turns a validated allocation State into the ordered payment list that goes
  on the wire. This is also the final reconciliation pass: whatever the edit
  history, the last slot absorbs the remainder so the breakdown always sums
  to the total exactly.

SEE ALSO:
  - state.go: The state this materializes
*/
package allocation

// Payment is one entry of the materialized breakdown. JSON keys match the
// submit payload contract.
type Payment struct {
	Method         MethodCode `json:"method"`
	Amount         Amount     `json:"amount"`
	SequenceNumber int        `json:"sequenceNumber"`
}

// BuildPayments materializes the breakdown in selection order with 1-based
// sequence numbers. A sole method carries the full total. With two or three
// methods the last slot gets total minus the explicit slots, guarding
// against edit orderings that left it stale. Pure: calling it twice without
// intervening edits yields identical sequences.
func (s State) BuildPayments() ([]Payment, error) {
	n := len(s.Selection)
	if n == 0 {
		return nil, ErrEmptySelection
	}

	payments := make([]Payment, n)
	if n == 1 {
		payments[0] = Payment{Method: s.Selection[0], Amount: s.Total, SequenceNumber: 1}
		return payments, nil
	}

	remainder := s.Total
	for i, code := range s.Selection[:n-1] {
		amt := s.amountOf(code)
		payments[i] = Payment{Method: code, Amount: amt, SequenceNumber: i + 1}
		remainder = remainder.Sub(amt)
	}
	if remainder.IsNegative() {
		return nil, ErrAllocationExceeded
	}
	payments[n-1] = Payment{Method: s.Selection[n-1], Amount: remainder, SequenceNumber: n}
	return payments, nil
}
