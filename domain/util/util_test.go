package util

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountString(t *testing.T) {
	assert.Equal(t, "25 DAI", AmountString(sdkmath.NewUintFromString("25000000000000000000"), 18, "DAI"))
	assert.Equal(t, "1,234.5 DAI", AmountString(sdkmath.NewUintFromString("1234500000000000000000"), 18, "DAI"))
	assert.Equal(t, "0 DAI", AmountString(sdkmath.Uint{}, 18, "DAI"))
	assert.Equal(t, "100 USDC", AmountString(sdkmath.NewUint(100), 0, "USDC"))
}

func TestUnitsString(t *testing.T) {
	assert.Equal(t, "12,500,000", UnitsString(sdkmath.NewUint(12500000)))
	assert.Equal(t, "0", UnitsString(sdkmath.Uint{}))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1000", "1000"},
		{" 25e18 ", "25000000000000000000"},
		{"2.5e19", "25000000000000000000"},
		{"1.50e1", "15"},
		{"1_000", "1000"},
		{"0", "0"},
	}
	for _, tc := range tests {
		amount, err := ParseAmount(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, amount.String(), tc.input)
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, input := range []string{"", "ten", "-5", "1.5", "1e-3", "1.25e1", "2e80"} {
		_, err := ParseAmount(input)
		assert.ErrorIs(t, err, ErrorInvalidAmount, input)
	}
}
