package simulated

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	sdkmath "cosmossdk.io/math"

	"supplypool/domain"
)

// Market is an in-memory lending market in the manner of a cToken. Suppliers hold market
// shares whose value grows with the market's cash.
type Market struct {
	mu      sync.Mutex
	address domain.Account
	token   *Token
	cash    sdkmath.Uint
	supply  sdkmath.Uint
	shares  map[domain.Account]sdkmath.Uint
}

func NewMarket(address domain.Account, token *Token) *Market {
	return &Market{
		address: address,
		token:   token,
		cash:    sdkmath.ZeroUint(),
		supply:  sdkmath.ZeroUint(),
		shares:  make(map[domain.Account]sdkmath.Uint),
	}
}

func (market *Market) Address() domain.Account {
	return market.address
}

// DepositUnderlying pulls amount from the supplier, who must have approved the market.
func (market *Market) DepositUnderlying(ctx context.Context, supplier domain.Account, amount sdkmath.Uint) error {
	market.mu.Lock()
	defer market.mu.Unlock()

	minted := amount
	if !market.supply.IsZero() {
		if market.cash.IsZero() {
			return fmt.Errorf("%w: market has supply but no cash", domain.ErrorVenueInsufficientCash)
		}
		minted = mulDiv(amount, market.supply, market.cash)
	}

	if err := market.token.TransferFrom(ctx, market.address, supplier, market.address, amount); err != nil {
		return err
	}
	market.cash = market.cash.Add(amount)
	market.supply = market.supply.Add(minted)
	market.shares[supplier] = market.sharesOf(supplier).Add(minted)
	return nil
}

func (market *Market) WithdrawUnderlying(ctx context.Context, supplier domain.Account, amount sdkmath.Uint) error {
	market.mu.Lock()
	defer market.mu.Unlock()

	if amount.GT(market.cash) {
		return fmt.Errorf("%w: %v in cash, %v requested", domain.ErrorVenueInsufficientCash, market.cash, amount)
	}
	burned := mulDiv(amount, market.supply, market.cash)
	held := market.sharesOf(supplier)
	if burned.GT(held) {
		return fmt.Errorf("%w: %v held, %v needed", domain.ErrorVenueInsufficientShares, held, burned)
	}

	if err := market.token.Transfer(ctx, market.address, supplier, amount); err != nil {
		return err
	}
	market.cash = market.cash.Sub(amount)
	market.supply = market.supply.Sub(burned)
	market.shares[supplier] = held.Sub(burned)
	return nil
}

func (market *Market) BalanceOfUnderlying(ctx context.Context, owner domain.Account) (sdkmath.Uint, error) {
	market.mu.Lock()
	defer market.mu.Unlock()

	if market.supply.IsZero() {
		return sdkmath.ZeroUint(), nil
	}
	return mulDiv(market.sharesOf(owner), market.cash, market.supply), nil
}

// SupplyUnderlying donates amount to the market without minting shares, which raises the
// value of every supplier's shares.
func (market *Market) SupplyUnderlying(ctx context.Context, from domain.Account, amount sdkmath.Uint) error {
	market.mu.Lock()
	defer market.mu.Unlock()

	if err := market.token.Transfer(ctx, from, market.address, amount); err != nil {
		return err
	}
	market.cash = market.cash.Add(amount)
	return nil
}

// Accrue creates amount of interest out of thin air.
func (market *Market) Accrue(ctx context.Context, amount sdkmath.Uint) error {
	market.mu.Lock()
	defer market.mu.Unlock()

	if err := market.token.Mint(ctx, market.address, amount); err != nil {
		return err
	}
	market.cash = market.cash.Add(amount)
	return nil
}

// Seed restores a supplier position without moving tokens, e.g. after a restart.
func (market *Market) Seed(ctx context.Context, supplier domain.Account, underlying, shares sdkmath.Uint) error {
	market.mu.Lock()
	defer market.mu.Unlock()

	if err := market.token.Mint(ctx, market.address, underlying); err != nil {
		return err
	}
	market.cash = market.cash.Add(underlying)
	market.supply = market.supply.Add(shares)
	market.shares[supplier] = market.sharesOf(supplier).Add(shares)
	return nil
}

func (market *Market) SharesOf(owner domain.Account) sdkmath.Uint {
	market.mu.Lock()
	defer market.mu.Unlock()

	return market.sharesOf(owner)
}

func (market *Market) Cash() sdkmath.Uint {
	market.mu.Lock()
	defer market.mu.Unlock()

	return market.cash
}

func (market *Market) sharesOf(owner domain.Account) sdkmath.Uint {
	if shares, exist := market.shares[owner]; exist {
		return shares
	}
	return sdkmath.ZeroUint()
}

func mulDiv(a, b, c sdkmath.Uint) sdkmath.Uint {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewUintFromBigInt(product.Quo(product, c.BigInt()))
}
