package allocation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/txn-entry/allocation"
)

func TestAmount_MarshalsAsBareInteger(t *testing.T) {
	data, err := json.Marshal(allocation.NewAmount(12000))
	require.NoError(t, err)
	assert.Equal(t, "12000", string(data))
}

func TestAmount_Unmarshal_RejectsFractionalAndNegative(t *testing.T) {
	var a allocation.Amount
	assert.ErrorIs(t, json.Unmarshal([]byte("12.5"), &a), allocation.ErrInvalidAmount)
	assert.ErrorIs(t, json.Unmarshal([]byte("-1"), &a), allocation.ErrInvalidAmount)

	require.NoError(t, json.Unmarshal([]byte("4000"), &a))
	assert.Equal(t, int64(4000), a.Units())
}

func TestParseAmount_LeadingZeros(t *testing.T) {
	a, err := allocation.ParseAmount("0042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.Units())
}
