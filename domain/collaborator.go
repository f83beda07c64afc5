package domain

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// Asset is the fungible token depositors put into the pool.
type Asset interface {
	Transfer(ctx context.Context, from, to Account, amount sdkmath.Uint) error
	// TransferFrom moves funds on behalf of owner `from`; spender must hold enough allowance.
	TransferFrom(ctx context.Context, spender, from, to Account, amount sdkmath.Uint) error
	Approve(ctx context.Context, owner, spender Account, amount sdkmath.Uint) error
	BalanceOf(ctx context.Context, account Account) (sdkmath.Uint, error)
	Allowance(ctx context.Context, owner, spender Account) (sdkmath.Uint, error)
}

// YieldVenue is the interest-bearing market holding the pool's underlying.
type YieldVenue interface {
	Address() Account
	DepositUnderlying(ctx context.Context, supplier Account, amount sdkmath.Uint) error
	WithdrawUnderlying(ctx context.Context, supplier Account, amount sdkmath.Uint) error
	// BalanceOfUnderlying includes accrued interest. It only grows between withdrawals.
	BalanceOfUnderlying(ctx context.Context, owner Account) (sdkmath.Uint, error)
}
