package generic_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MONEY
// =============================================================================

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R0"},
		{0.4, "R0"},
		{0.5, "R1"},
		{999.49, "R999"},
		{1096.5, "R1,097"},
		{3186, "R3,186"},
		{1234567.8, "R1,234,568"},
		{-54, "R54"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generic.FormatFloat(tt.in), "%v", tt.in)
	}
}

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "-R54", generic.FormatSigned(generic.MoneyFromFloat(-54)))
	assert.Equal(t, "R0", generic.FormatSigned(generic.MoneyFromFloat(-0.2)))
	assert.Equal(t, "R12", generic.FormatSigned(generic.MoneyFromFloat(12)))
}

func TestMoneyFromFloat_NonFiniteIsZero(t *testing.T) {
	assert.True(t, generic.MoneyFromFloat(math.NaN()).IsZero())
	assert.True(t, generic.MoneyFromFloat(math.Inf(1)).IsZero())
}

func TestMoney_SplitIsExact(t *testing.T) {
	// GIVEN: Totals that do not halve into whole units
	// WHEN: Splitting at various fractions
	// THEN: share + rest is exactly the original amount

	fractions := []string{"0.5", "0.3", "0.333", "1", "0"}
	totals := []float64{270, 3186.0000000000005, 1096.5, 0.1 + 0.2, 12345.678}

	for _, f := range fractions {
		for _, total := range totals {
			m := generic.MoneyFromFloat(total)
			share, rest := m.Split(decimal.RequireFromString(f))
			assert.True(t, share.Add(rest).Equal(m), "%v at %s", total, f)
		}
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total generic.Money `json:"total"`
	}{generic.MustParseMoney("1096.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"1096.5"}`, string(b))

	var out struct {
		Total generic.Money `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"total":42.25}`), &out))
	assert.Equal(t, "42.25", out.Total.String())
}
