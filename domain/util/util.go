package util

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/dustin/go-humanize"
)

var (
	ErrorInvalidAmount = fmt.Errorf("invalid amount")
)

// AmountString renders base units as whole tokens, e.g. 25,000,000,000,000,000,000 with 18
// decimals gives "25 DAI".
func AmountString(amount sdkmath.Uint, decimals int, symbol string) string {
	if amount.IsNil() {
		amount = sdkmath.ZeroUint()
	}
	value := new(big.Float).SetPrec(256).SetInt(amount.BigInt())
	scale := new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value.Quo(value, scale)
	return fmt.Sprintf("%v %v", humanize.BigCommaf(value), symbol)
}

// UnitsString renders base units with thousands separators.
func UnitsString(amount sdkmath.Uint) string {
	if amount.IsNil() {
		return "0"
	}
	return humanize.BigComma(amount.BigInt())
}

// ParseAmount reads an amount of base units written as an integer or in scientific notation,
// e.g. "1000", "25e18" or "1.5e18". The result must be a whole number.
func ParseAmount(value string) (sdkmath.Uint, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), "_", "")
	mantissa, exponent, scientific := strings.Cut(strings.ToLower(value), "e")

	exp := 0
	if scientific {
		var err error
		exp, err = strconv.Atoi(exponent)
		if err != nil || exp < 0 {
			return sdkmath.Uint{}, fmt.Errorf("%w: %q", ErrorInvalidAmount, value)
		}
	}

	whole, fraction, _ := strings.Cut(mantissa, ".")
	fraction = strings.TrimRight(fraction, "0")
	if len(fraction) > exp {
		return sdkmath.Uint{}, fmt.Errorf("%w: %q is not a whole number", ErrorInvalidAmount, value)
	}

	digits := whole + fraction + strings.Repeat("0", exp-len(fraction))
	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok || amount.Sign() < 0 || amount.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Uint{}, fmt.Errorf("%w: %q", ErrorInvalidAmount, value)
	}
	return sdkmath.NewUintFromBigInt(amount), nil
}
