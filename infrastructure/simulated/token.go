package simulated

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	sdkmath "cosmossdk.io/math"

	"supplypool/domain"
)

type allowanceKey struct {
	owner   domain.Account
	spender domain.Account
}

// Token is an in-memory mintable fungible token.
type Token struct {
	mu         sync.Mutex
	symbol     string
	balances   map[domain.Account]sdkmath.Uint
	allowances map[allowanceKey]sdkmath.Uint
	supply     sdkmath.Uint
}

func NewToken(symbol string) *Token {
	return &Token{
		symbol:     symbol,
		balances:   make(map[domain.Account]sdkmath.Uint),
		allowances: make(map[allowanceKey]sdkmath.Uint),
		supply:     sdkmath.ZeroUint(),
	}
}

func (token *Token) Symbol() string {
	return token.symbol
}

func (token *Token) Mint(ctx context.Context, to domain.Account, amount sdkmath.Uint) error {
	token.mu.Lock()
	defer token.mu.Unlock()

	token.balances[to] = token.balanceOf(to).Add(amount)
	token.supply = token.supply.Add(amount)
	return nil
}

func (token *Token) Transfer(ctx context.Context, from, to domain.Account, amount sdkmath.Uint) error {
	token.mu.Lock()
	defer token.mu.Unlock()

	return token.move(from, to, amount)
}

func (token *Token) TransferFrom(ctx context.Context, spender, from, to domain.Account, amount sdkmath.Uint) error {
	token.mu.Lock()
	defer token.mu.Unlock()

	key := allowanceKey{owner: from, spender: spender}
	allowance := token.allowance(key)
	if amount.GT(allowance) {
		return fmt.Errorf("%w: %v allowed, %v requested", domain.ErrorInsufficientAllowance, allowance, amount)
	}
	if err := token.move(from, to, amount); err != nil {
		return err
	}
	if !isInfinite(allowance) {
		token.allowances[key] = allowance.Sub(amount)
	}
	return nil
}

func (token *Token) Approve(ctx context.Context, owner, spender domain.Account, amount sdkmath.Uint) error {
	token.mu.Lock()
	defer token.mu.Unlock()

	token.allowances[allowanceKey{owner: owner, spender: spender}] = amount
	return nil
}

func (token *Token) BalanceOf(ctx context.Context, account domain.Account) (sdkmath.Uint, error) {
	token.mu.Lock()
	defer token.mu.Unlock()

	return token.balanceOf(account), nil
}

func (token *Token) Allowance(ctx context.Context, owner, spender domain.Account) (sdkmath.Uint, error) {
	token.mu.Lock()
	defer token.mu.Unlock()

	return token.allowance(allowanceKey{owner: owner, spender: spender}), nil
}

func (token *Token) TotalSupply() sdkmath.Uint {
	token.mu.Lock()
	defer token.mu.Unlock()

	return token.supply
}

func (token *Token) move(from, to domain.Account, amount sdkmath.Uint) error {
	balance := token.balanceOf(from)
	if amount.GT(balance) {
		return fmt.Errorf("%w: %v held, %v requested", domain.ErrorInsufficientBalance, balance, amount)
	}
	token.balances[from] = balance.Sub(amount)
	token.balances[to] = token.balanceOf(to).Add(amount)
	return nil
}

func (token *Token) balanceOf(account domain.Account) sdkmath.Uint {
	if balance, exist := token.balances[account]; exist {
		return balance
	}
	return sdkmath.ZeroUint()
}

func (token *Token) allowance(key allowanceKey) sdkmath.Uint {
	if allowance, exist := token.allowances[key]; exist {
		return allowance
	}
	return sdkmath.ZeroUint()
}

// An allowance of 2^256-1 is never decremented.
func isInfinite(amount sdkmath.Uint) bool {
	return amount.BigInt().Cmp(maxUint) == 0
}

var maxUint = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), sdkmath.MaxBitLen), big.NewInt(1))

// MaxUint is the infinite allowance.
func MaxUint() sdkmath.Uint {
	return sdkmath.NewUintFromBigInt(maxUint)
}
