package usecase

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplypool/domain"
)

func TestFullRedemptionsAfterUnevenProfit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)

	_, err := f.ledger.Mint(ctx, alice, sdkmath.NewUint(1000))
	require.NoError(t, err)
	require.NoError(t, f.market.SupplyUnderlying(ctx, carol, sdkmath.NewUint(7)))
	shares, err := f.ledger.Mint(ctx, bob, sdkmath.NewUint(333))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(330), shares)

	burned, err := f.ledger.RedeemUnderlying(ctx, alice, sdkmath.NewUint(999))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(991), burned)

	// 333 is priced at 331 shares by now, bob only holds 330
	burned, err = f.ledger.RedeemUnderlying(ctx, bob, sdkmath.NewUint(333))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(330), burned)
	assertUint(t, sdkmath.ZeroUint(), f.ledger.AccountTokens(bob))
	assertUint(t, tokens(100), f.balance(t, bob))

	_, err = f.ledger.RedeemUnderlying(ctx, alice, sdkmath.NewUint(1))
	require.NoError(t, err)
	assertUint(t, tokens(100), f.balance(t, alice))

	assertUint(t, sdkmath.ZeroUint(), f.ledger.TotalLockedUnderlying())
	assertUint(t, sdkmath.NewUint(7), f.venueBalance(t))
	assertUint(t, sdkmath.NewUint(7), f.currentEarning(t))
	assertUint(t, sdkmath.NewUint(7), f.earningsOf(t, alice))

	collected, err := f.ledger.TakeEarnings(ctx, operator)
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(7), collected)
	assertUint(t, sdkmath.ZeroUint(), f.ledger.TotalTokens())
	assertUint(t, sdkmath.ZeroUint(), f.venueBalance(t))
}

func TestFullRedemptionsAfterTake(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)

	_, err := f.ledger.Mint(ctx, alice, sdkmath.NewUint(1000))
	require.NoError(t, err)
	_, err = f.ledger.Mint(ctx, bob, sdkmath.NewUint(333))
	require.NoError(t, err)
	require.NoError(t, f.market.SupplyUnderlying(ctx, carol, sdkmath.NewUint(7)))

	collected, err := f.ledger.TakeEarnings(ctx, operator)
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(7), collected)
	assertUint(t, sdkmath.NewUint(1327), f.ledger.TotalTokens())
	assertUint(t, sdkmath.NewUint(995), f.ledger.BalanceOf(alice))
	assertUint(t, sdkmath.NewUint(331), f.ledger.BalanceOf(bob))

	burned, err := f.ledger.RedeemUnderlying(ctx, alice, sdkmath.NewUint(1000))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(995), burned)

	burned, err = f.ledger.RedeemUnderlying(ctx, bob, sdkmath.NewUint(333))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(331), burned)

	assertUint(t, tokens(100), f.balance(t, alice))
	assertUint(t, tokens(100), f.balance(t, bob))
	assertUint(t, sdkmath.ZeroUint(), f.ledger.TotalLockedUnderlying())
	assertUint(t, sdkmath.ZeroUint(), f.venueBalance(t))
	assertUint(t, sdkmath.NewUint(1), f.ledger.TotalTokens())

	// The leftover share backs nothing, the next depositor starts over at one to one
	shares, err := f.ledger.Mint(ctx, carol, sdkmath.NewUint(100))
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(100), shares)

	_, err = f.ledger.RedeemUnderlying(ctx, carol, sdkmath.NewUint(100))
	require.NoError(t, err)
	assertUint(t, tokens(100).Sub(sdkmath.NewUint(7)), f.balance(t, carol))
}

func TestPrincipalIsAlwaysRedeemable(t *testing.T) {
	ctx := context.Background()
	depositors := []domain.Account{alice, bob, carol}

	for seed := int64(1); seed <= 50; seed++ {
		f := newFixture(t, operator)
		rnd := rand.New(rand.NewSource(seed))

		for step := 0; step < 60; step++ {
			depositor := depositors[rnd.Intn(len(depositors))]

			switch rnd.Intn(4) {
			case 0:
				_, err := f.ledger.Mint(ctx, depositor, sdkmath.NewUint(uint64(rnd.Int63n(1_000_000)+1)))
				if !errors.Is(err, domain.ErrorDepositTooSmall) {
					require.NoError(t, err, "seed %d step %d", seed, step)
				}
			case 1:
				principal := f.ledger.AccountUnderlying(depositor)
				if principal.IsZero() {
					continue
				}
				amount := sdkmath.NewUint(uint64(rnd.Int63n(int64(principal.Uint64())) + 1))
				_, err := f.ledger.RedeemUnderlying(ctx, depositor, amount)
				require.NoError(t, err, "seed %d step %d", seed, step)
			case 2:
				require.NoError(t, f.market.Accrue(ctx, sdkmath.NewUint(uint64(rnd.Int63n(10_000)+1))))
			case 3:
				_, err := f.ledger.TakeEarnings(ctx, operator)
				if !errors.Is(err, domain.ErrorNothingToCollect) {
					require.NoError(t, err, "seed %d step %d", seed, step)
				}
			}

			assert.True(t, f.ledger.TotalLockedUnderlying().LTE(f.venueBalance(t)), "seed %d step %d", seed, step)
		}

		for _, depositor := range depositors {
			principal := f.ledger.AccountUnderlying(depositor)
			if principal.IsZero() {
				continue
			}
			_, err := f.ledger.RedeemUnderlying(ctx, depositor, principal)
			require.NoError(t, err, "seed %d", seed)
			assertUint(t, tokens(100), f.balance(t, depositor), "seed %d", seed)
		}
		assertUint(t, sdkmath.ZeroUint(), f.ledger.TotalLockedUnderlying(), "seed %d", seed)
	}
}
