package allocation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/txn-entry/allocation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func twoWay(t *testing.T, total int64) allocation.State {
	t.Helper()
	st := allocation.NewState()
	st, err := st.WithTotal(allocation.NewAmount(total))
	require.NoError(t, err)
	st, err = st.Select("CARD")
	require.NoError(t, err)
	st, err = st.Select("CASH")
	require.NoError(t, err)
	return st
}

func threeWay(t *testing.T, total int64) allocation.State {
	t.Helper()
	st := twoWay(t, total)
	st, err := st.Select("POINT")
	require.NoError(t, err)
	return st
}

func amountOf(t *testing.T, st allocation.State, code allocation.MethodCode) int64 {
	t.Helper()
	v, ok := st.Amounts[code]
	require.True(t, ok, "no amount recorded for %s", code)
	return v.Units()
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestSelect_OrderPreserved(t *testing.T) {
	st := allocation.NewState()
	st, err := st.Select("CASH")
	require.NoError(t, err)
	st, err = st.Select("CARD")
	require.NoError(t, err)

	assert.Equal(t, []allocation.MethodCode{"CASH", "CARD"}, st.Selection)
}

func TestSelect_Duplicate_NoOp(t *testing.T) {
	st := allocation.NewState()
	st, err := st.Select("CARD")
	require.NoError(t, err)

	next, err := st.Select("CARD")
	require.NoError(t, err)
	assert.Equal(t, st.Selection, next.Selection)
}

func TestSelect_FourthMethod_RejectedWithoutMutation(t *testing.T) {
	// GIVEN: Three methods already selected
	st := threeWay(t, 10000)

	// WHEN: Selecting a fourth
	next, err := st.Select("TRANSFER")

	// THEN: Rejected, selection unchanged
	require.ErrorIs(t, err, allocation.ErrTooManySelections)
	assert.Equal(t, st.Selection, next.Selection)
	assert.Len(t, next.Selection, 3)
}

func TestDeselect_RemovesAmountEntry(t *testing.T) {
	st := twoWay(t, 10000)
	st, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)

	st = st.Deselect("CASH")

	assert.Equal(t, []allocation.MethodCode{"CARD"}, st.Selection)
	_, ok := st.Amounts["CASH"]
	assert.False(t, ok)
}

// =============================================================================
// TWO-WAY ALLOCATION
// =============================================================================

func TestSetAmount_TwoWay_OtherDerivesRemainder(t *testing.T) {
	// GIVEN: T=10000, Selection=[CARD, CASH]
	st := twoWay(t, 10000)

	// WHEN: CARD is set to 4000
	st, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)

	// THEN: CASH derives to 6000
	assert.Equal(t, int64(4000), amountOf(t, st, "CARD"))
	assert.Equal(t, int64(6000), amountOf(t, st, "CASH"))
}

func TestSetAmount_TwoWay_EditingSecondSlot_DerivesFirst(t *testing.T) {
	st := twoWay(t, 10000)

	st, err := st.SetAmount("CASH", "2500")
	require.NoError(t, err)

	assert.Equal(t, int64(2500), amountOf(t, st, "CASH"))
	assert.Equal(t, int64(7500), amountOf(t, st, "CARD"))
}

func TestSetAmount_TwoWay_OverTotal_RejectedAtomically(t *testing.T) {
	// GIVEN: T=10000, CARD=4000 / CASH=6000 already allocated
	st := twoWay(t, 10000)
	st, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)

	// WHEN: CARD is bumped past the total
	next, err := st.SetAmount("CARD", "11000")

	// THEN: Rejected; both prior amounts survive
	require.ErrorIs(t, err, allocation.ErrAllocationExceeded)
	assert.Equal(t, int64(4000), amountOf(t, next, "CARD"))
	assert.Equal(t, int64(6000), amountOf(t, next, "CASH"))

	var exceeded *allocation.AllocationExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, int64(1000), exceeded.Overrun.Units())
}

func TestSetAmount_TwoWay_ExactTotal_OtherDerivesZero(t *testing.T) {
	st := twoWay(t, 10000)

	st, err := st.SetAmount("CARD", "10000")
	require.NoError(t, err)

	assert.Equal(t, int64(0), amountOf(t, st, "CASH"))
}

func TestSetAmount_EmptyInput_ParsesAsZero(t *testing.T) {
	st := twoWay(t, 10000)

	st, err := st.SetAmount("CARD", "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), amountOf(t, st, "CARD"))
	assert.Equal(t, int64(10000), amountOf(t, st, "CASH"))
}

func TestSetAmount_NonDigitInput_Rejected(t *testing.T) {
	st := twoWay(t, 10000)

	for _, raw := range []string{"12.5", "-3", "abc", "1 000", "+7"} {
		_, err := st.SetAmount("CARD", raw)
		assert.ErrorIs(t, err, allocation.ErrInvalidAmount, "input %q", raw)
	}
}

func TestSetAmount_UnselectedMethod_Rejected(t *testing.T) {
	st := twoWay(t, 10000)

	_, err := st.SetAmount("TRANSFER", "100")
	assert.ErrorIs(t, err, allocation.ErrMethodNotSelected)
}

// =============================================================================
// THREE-WAY ALLOCATION
// =============================================================================

func TestSetAmount_ThreeWay_ThirdDerives(t *testing.T) {
	// GIVEN: T=9000, Selection=[CARD, CASH, POINT]
	st := threeWay(t, 9000)

	// WHEN: CARD=3000 then CASH=4000
	st, err := st.SetAmount("CARD", "3000")
	require.NoError(t, err)
	st, err = st.SetAmount("CASH", "4000")
	require.NoError(t, err)

	// THEN: POINT derives to 2000 and the sum equals the total
	assert.Equal(t, int64(3000), amountOf(t, st, "CARD"))
	assert.Equal(t, int64(4000), amountOf(t, st, "CASH"))
	assert.Equal(t, int64(2000), amountOf(t, st, "POINT"))
}

func TestSetAmount_ThreeWay_NegativeDerived_Rejected(t *testing.T) {
	// GIVEN: T=5000, CARD already at 3000
	st := threeWay(t, 5000)
	st, err := st.SetAmount("CARD", "3000")
	require.NoError(t, err)

	// WHEN: CASH=3000 would derive POINT=-1000
	next, err := st.SetAmount("CASH", "3000")

	// THEN: Rejected; CASH keeps its prior (unset) value, POINT keeps 2000
	require.ErrorIs(t, err, allocation.ErrAllocationExceeded)
	_, cashSet := next.Amounts["CASH"]
	assert.False(t, cashSet)
	assert.Equal(t, int64(2000), amountOf(t, next, "POINT"))
}

func TestSetAmount_ThreeWay_ThirdSlotIsTerminal(t *testing.T) {
	// GIVEN: CARD=3000 derived POINT=6000 under T=9000
	st := threeWay(t, 9000)
	st, err := st.SetAmount("CARD", "3000")
	require.NoError(t, err)

	// WHEN: POINT is edited directly
	st, err = st.SetAmount("POINT", "1000")
	require.NoError(t, err)

	// THEN: Nothing cascades; CARD untouched, CASH still unset
	assert.Equal(t, int64(1000), amountOf(t, st, "POINT"))
	assert.Equal(t, int64(3000), amountOf(t, st, "CARD"))
	_, cashSet := st.Amounts["CASH"]
	assert.False(t, cashSet)
}

func TestSetAmount_ThreeWay_TerminalSlotOverTotal_Rejected(t *testing.T) {
	st := threeWay(t, 9000)
	st, err := st.SetAmount("CARD", "3000")
	require.NoError(t, err)

	_, err = st.SetAmount("POINT", "7000")
	assert.ErrorIs(t, err, allocation.ErrAllocationExceeded)
}

// =============================================================================
// TOTAL EDITS
// =============================================================================

func TestWithTotal_NonPositive_Rejected(t *testing.T) {
	st := allocation.NewState()

	_, err := st.WithTotal(allocation.NewAmount(0))
	assert.ErrorIs(t, err, allocation.ErrInvalidTotal)
}

func TestWithTotal_DoesNotRebalance(t *testing.T) {
	// GIVEN: A settled two-way split
	st := twoWay(t, 10000)
	st, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)

	// WHEN: The total shrinks
	st, err = st.WithTotal(allocation.NewAmount(7000))
	require.NoError(t, err)

	// THEN: Amounts are stale until the next edit reconciles them
	assert.Equal(t, int64(6000), amountOf(t, st, "CASH"))

	st, err = st.SetAmount("CARD", "4000")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), amountOf(t, st, "CASH"))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_EmptySelection(t *testing.T) {
	st := allocation.NewState()
	st, err := st.WithTotal(allocation.NewAmount(1000))
	require.NoError(t, err)

	assert.ErrorIs(t, st.Validate(), allocation.ErrEmptySelection)
}

func TestValidate_SingleMethod_ImplicitAmount(t *testing.T) {
	st := allocation.NewState()
	st, err := st.WithTotal(allocation.NewAmount(12000))
	require.NoError(t, err)
	st, err = st.Select("CARD")
	require.NoError(t, err)

	assert.NoError(t, st.Validate())
}

func TestValidate_SingleMethod_CollectedAmountMustEqualTotal(t *testing.T) {
	st := allocation.NewState()
	st, err := st.WithTotal(allocation.NewAmount(12000))
	require.NoError(t, err)
	st, err = st.Select("CARD")
	require.NoError(t, err)
	st, err = st.SetAmount("CARD", "11000")
	require.NoError(t, err)

	assert.ErrorIs(t, st.Validate(), allocation.ErrAmountMismatch)

	st, err = st.SetAmount("CARD", "12000")
	require.NoError(t, err)
	assert.NoError(t, st.Validate())
}

// =============================================================================
// PAYMENT MATERIALIZATION
// =============================================================================

func TestBuildPayments_SingleMethod_CarriesTotal(t *testing.T) {
	st := allocation.NewState()
	st, err := st.WithTotal(allocation.NewAmount(12000))
	require.NoError(t, err)
	st, err = st.Select("CARD")
	require.NoError(t, err)

	payments, err := st.BuildPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, allocation.MethodCode("CARD"), payments[0].Method)
	assert.Equal(t, int64(12000), payments[0].Amount.Units())
	assert.Equal(t, 1, payments[0].SequenceNumber)
}

func TestBuildPayments_LastSlotAbsorbsRemainder(t *testing.T) {
	// GIVEN: Total changed after the split settled, leaving CASH stale
	st := twoWay(t, 10000)
	st, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)
	st, err = st.WithTotal(allocation.NewAmount(9000))
	require.NoError(t, err)

	// WHEN: Materializing
	payments, err := st.BuildPayments()
	require.NoError(t, err)

	// THEN: The last slot is reconciled against the new total
	assert.Equal(t, int64(4000), payments[0].Amount.Units())
	assert.Equal(t, int64(5000), payments[1].Amount.Units())
}

func TestBuildPayments_Idempotent(t *testing.T) {
	st := threeWay(t, 9000)
	st, err := st.SetAmount("CARD", "3000")
	require.NoError(t, err)
	st, err = st.SetAmount("CASH", "4000")
	require.NoError(t, err)

	first, err := st.BuildPayments()
	require.NoError(t, err)
	second, err := st.BuildPayments()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildPayments_SequenceNumbersFollowSelectionOrder(t *testing.T) {
	st := threeWay(t, 9000)

	payments, err := st.BuildPayments()
	require.NoError(t, err)
	require.Len(t, payments, 3)
	for i, p := range payments {
		assert.Equal(t, i+1, p.SequenceNumber)
	}
	assert.Equal(t, allocation.MethodCode("CARD"), payments[0].Method)
	assert.Equal(t, allocation.MethodCode("CASH"), payments[1].Method)
	assert.Equal(t, allocation.MethodCode("POINT"), payments[2].Method)
}

func TestBuildPayments_NegativeRemainder_Rejected(t *testing.T) {
	// Explicit slots exceed a shrunken total.
	st := threeWay(t, 9000)
	st, err := st.SetAmount("CARD", "5000")
	require.NoError(t, err)
	st, err = st.SetAmount("CASH", "4000")
	require.NoError(t, err)
	st, err = st.WithTotal(allocation.NewAmount(6000))
	require.NoError(t, err)

	_, err = st.BuildPayments()
	assert.ErrorIs(t, err, allocation.ErrAllocationExceeded)
}

func TestBuildPayments_EmptySelection_Rejected(t *testing.T) {
	_, err := allocation.NewState().BuildPayments()
	assert.ErrorIs(t, err, allocation.ErrEmptySelection)
}

// =============================================================================
// IMMUTABILITY
// =============================================================================

func TestTransitions_DoNotAliasPriorState(t *testing.T) {
	st := twoWay(t, 10000)
	next, err := st.SetAmount("CARD", "4000")
	require.NoError(t, err)

	_, before := st.Amounts["CARD"]
	assert.False(t, before, "prior state mutated by transition")
	assert.Equal(t, int64(4000), amountOf(t, next, "CARD"))
}
