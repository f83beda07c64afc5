package usecase

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"supplypool/domain"
)

// mulDiv returns floor(a*b/c). The product is kept in big.Int since it may exceed 256 bits.
func mulDiv(a, b, c sdkmath.Uint) sdkmath.Uint {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewUintFromBigInt(product.Quo(product, c.BigInt()))
}

// subFloor returns a-b, or zero when b exceeds a.
func subFloor(a, b sdkmath.Uint) sdkmath.Uint {
	if b.GTE(a) {
		return sdkmath.ZeroUint()
	}
	return a.Sub(b)
}

// projectShares is the share balance of an account with every earnings collection since its
// last touch applied. Principal never changes without a touch, so the proportional split
// taken right after the latest collection is still exact.
func projectShares(totals domain.PoolTotals, acct domain.AccountState) sdkmath.Uint {
	if acct.Epoch >= totals.Epoch {
		return acct.Shares
	}
	if totals.EpochLocked.IsZero() || acct.Principal.IsZero() {
		return sdkmath.ZeroUint()
	}
	return mulDiv(acct.Principal, totals.EpochShares, totals.EpochLocked)
}

func materialize(totals domain.PoolTotals, acct domain.AccountState) domain.AccountState {
	acct.Shares = projectShares(totals, acct)
	acct.Epoch = totals.Epoch
	return acct
}

// sharesForDeposit prices a deposit against the venue balance before the deposit, so yield
// accrued earlier stays with the existing holders. Shares left over by rounding after the venue
// was emptied back nothing, so an empty venue prices like an empty pool.
func sharesForDeposit(amount, totalShares, venueBalance sdkmath.Uint) (sdkmath.Uint, error) {
	if totalShares.IsZero() || venueBalance.IsZero() {
		return amount, nil
	}
	shares := mulDiv(amount, totalShares, venueBalance)
	if shares.IsZero() {
		return shares, domain.ErrorDepositTooSmall
	}
	return shares, nil
}

// sharesForWithdrawal is the number of shares an account burns to take amount of its principal
// out. Flooring on deposits, withdrawals and projections lets the rate drift, so an account may
// hold a share or so less than its principal is priced at. The burn is capped at its holding.
func sharesForWithdrawal(amount sdkmath.Uint, acct domain.AccountState, totalShares, venueBalance sdkmath.Uint) (sdkmath.Uint, error) {
	if venueBalance.IsZero() {
		return sdkmath.ZeroUint(), domain.ErrorPoolInsolvent
	}
	burned := mulDiv(amount, totalShares, venueBalance)
	if burned.GT(acct.Shares) {
		return acct.Shares, nil
	}
	return burned, nil
}

// valueOf is the underlying currently backing the given shares.
func valueOf(shares, totalShares, venueBalance sdkmath.Uint) sdkmath.Uint {
	if totalShares.IsZero() {
		return sdkmath.ZeroUint()
	}
	return mulDiv(shares, venueBalance, totalShares)
}
