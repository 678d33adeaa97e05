package ledger_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/ledger"
)

func TestMoney_FloatDriftIsRoundedAway(t *testing.T) {
	// GIVEN: The classic binary float trap
	// WHEN: Adding 0.1 and 0.2
	// THEN: The result is exactly 0.30

	sum := ledger.NewMoney(0.1).Add(ledger.NewMoney(0.2))
	assert.Equal(t, "0.30", sum.String())
	assert.True(t, sum.Equal(ledger.NewMoney(0.3)))
}

func TestMoney_RoundingIsIdempotent(t *testing.T) {
	m := ledger.NewMoney(10.005)
	assert.True(t, m.Round2().Equal(m), "rounding an already-rounded value must not change it")
	assert.True(t, m.Round2().Round2().Equal(m.Round2()))
}

func TestMoney_ConstructionRounds(t *testing.T) {
	assert.Equal(t, "12.35", ledger.NewMoney(12.345).String())
	assert.Equal(t, "0.00", ledger.NewMoney(math.NaN()).String())
	assert.Equal(t, "0.00", ledger.NewMoney(math.Inf(1)).String())
}

func TestMoney_ClampZero(t *testing.T) {
	assert.Equal(t, "0.00", ledger.NewMoney(-5).ClampZero().String())
	assert.Equal(t, "5.00", ledger.NewMoney(5).ClampZero().String())
}

func TestParseAmount_ToleratesLooseTypes(t *testing.T) {
	assert.Equal(t, "12.50", ledger.ParseAmount(12.5).String())
	assert.Equal(t, "12.50", ledger.ParseAmount("12.50").String())
	assert.Equal(t, "12.50", ledger.ParseAmount(json.Number("12.5")).String())
	assert.Equal(t, "0.00", ledger.ParseAmount(nil).String())
	assert.Equal(t, "0.00", ledger.ParseAmount("not a number").String())
	assert.Equal(t, "0.00", ledger.ParseAmount(true).String())
}

func TestParseMoney_RejectsGarbage(t *testing.T) {
	_, err := ledger.ParseMoney("12.5.0")
	require.Error(t, err)

	m, err := ledger.ParseMoney(" 99.999 ")
	require.NoError(t, err)
	assert.Equal(t, "100.00", m.String())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(ledger.NewMoney(42.5))
	require.NoError(t, err)
	assert.Equal(t, "42.50", string(b))

	var m ledger.Money
	require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &m))
	assert.Equal(t, "19.99", m.String())

	require.NoError(t, json.Unmarshal([]byte(`19.99`), &m))
	assert.Equal(t, "19.99", m.String())

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}
