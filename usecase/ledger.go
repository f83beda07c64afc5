package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"supplypool/domain"
	"supplypool/infrastructure/logger"
	"supplypool/interface/exporter"
)

// PoolStore persists the effect of ledger operations.
type PoolStore interface {
	Save(ctx context.Context, update *domain.PoolUpdate) error
}

// LedgerInteractor owns the pool state and is the only way to change it.
//
// Shares are pro-rata claims on the pool's underlying in the venue, while principal is tracked
// separately per account. The difference between the venue balance and the locked principal is
// the yield, which only the operator may take out. Taking it burns the shares backing it; each
// account sees that burn lazily, the next time it is touched.
type LedgerInteractor struct {
	mu sync.Mutex

	self     domain.Account
	state    *domain.PoolState
	asset    domain.Asset
	venue    domain.YieldVenue
	store    PoolStore
	exporter *exporter.Exporter
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLedgerInteractor wires a ledger. store and exp may be nil.
func NewLedgerInteractor(self domain.Account,
	state *domain.PoolState,
	asset domain.Asset,
	venue domain.YieldVenue,
	store PoolStore,
	exp *exporter.Exporter) *LedgerInteractor {
	interactor := &LedgerInteractor{
		self:     self,
		state:    state,
		asset:    asset,
		venue:    venue,
		store:    store,
		exporter: exp,
		logger:   logger.GetForComponent("ledger"),
		now:      time.Now,
	}
	return interactor
}

func (interactor *LedgerInteractor) IsSupplyPool() bool {
	return true
}

// Initialize lets the venue pull deposits from the pool.
func (interactor *LedgerInteractor) Initialize(ctx context.Context) error {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	maxAllowance := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), sdkmath.MaxBitLen), big.NewInt(1))
	err := interactor.asset.Approve(ctx, interactor.self, interactor.venue.Address(), sdkmath.NewUintFromBigInt(maxAllowance))
	if err != nil {
		return fmt.Errorf("approving venue: %w", err)
	}
	return nil
}

// Mint pulls amount from the depositor, forwards it to the venue and returns the minted shares.
func (interactor *LedgerInteractor) Mint(ctx context.Context, depositor domain.Account, amount sdkmath.Uint) (sdkmath.Uint, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	shares, err := interactor.mint(ctx, depositor, amount)
	interactor.report(domain.OperationMint, depositor, amount, shares, err)
	return shares, err
}

func (interactor *LedgerInteractor) mint(ctx context.Context, depositor domain.Account, amount sdkmath.Uint) (sdkmath.Uint, error) {
	if amount.IsNil() || amount.IsZero() {
		return sdkmath.ZeroUint(), domain.ErrorZeroAmount
	}

	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("reading venue balance: %w", err)
	}

	state := interactor.state
	acct := materialize(state.PoolTotals, state.Account(depositor))

	shares, err := sharesForDeposit(amount, state.TotalShares, venueBalance)
	if err != nil {
		return sdkmath.ZeroUint(), err
	}

	update := state.Capture(domain.OperationMint)
	acct.Shares = acct.Shares.Add(shares)
	acct.Principal = acct.Principal.Add(amount)
	update.Accounts[depositor] = acct
	update.Totals.TotalShares = update.Totals.TotalShares.Add(shares)
	update.Totals.TotalLocked = update.Totals.TotalLocked.Add(amount)
	update.Operation = interactor.operation(domain.OperationMint, depositor, amount, shares)

	var rb rollback

	err = interactor.asset.TransferFrom(ctx, interactor.self, depositor, interactor.self, amount)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("pulling deposit: %w", err)
	}
	rb.push("refund deposit", func(ctx context.Context) error {
		return interactor.asset.Transfer(ctx, interactor.self, depositor, amount)
	})

	err = interactor.venue.DepositUnderlying(ctx, interactor.self, amount)
	if err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, fmt.Errorf("forwarding to venue: %w", err))
	}
	rb.push("withdraw deposit from venue", func(ctx context.Context) error {
		return interactor.venue.WithdrawUnderlying(ctx, interactor.self, amount)
	})

	if err := interactor.save(ctx, update); err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, err)
	}

	state.Apply(update)
	return shares, nil
}

// RedeemUnderlying pays amount of the account's principal back and returns the burned shares.
// Yield is never paid out here.
func (interactor *LedgerInteractor) RedeemUnderlying(ctx context.Context, account domain.Account, amount sdkmath.Uint) (sdkmath.Uint, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	burned, err := interactor.redeem(ctx, account, amount)
	interactor.report(domain.OperationRedeem, account, amount, burned, err)
	return burned, err
}

func (interactor *LedgerInteractor) redeem(ctx context.Context, account domain.Account, amount sdkmath.Uint) (sdkmath.Uint, error) {
	if amount.IsNil() || amount.IsZero() {
		return sdkmath.ZeroUint(), domain.ErrorZeroAmount
	}

	state := interactor.state
	acct := materialize(state.PoolTotals, state.Account(account))
	if amount.GT(acct.Principal) {
		return sdkmath.ZeroUint(), fmt.Errorf("%w: requested %v, principal %v", domain.ErrorInsufficientPrincipal, amount, acct.Principal)
	}

	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("reading venue balance: %w", err)
	}

	burned, err := sharesForWithdrawal(amount, acct, state.TotalShares, venueBalance)
	if err != nil {
		return sdkmath.ZeroUint(), err
	}

	prior := state.Capture(domain.OperationRollback, account)
	prior.Operation = interactor.operation(domain.OperationRollback, account, amount, burned)

	update := state.Capture(domain.OperationRedeem)
	acct.Shares = acct.Shares.Sub(burned)
	acct.Principal = acct.Principal.Sub(amount)
	update.Accounts[account] = acct
	update.Totals.TotalShares = update.Totals.TotalShares.Sub(burned)
	update.Totals.TotalLocked = update.Totals.TotalLocked.Sub(amount)
	update.Operation = interactor.operation(domain.OperationRedeem, account, amount, burned)

	var rb rollback

	err = interactor.venue.WithdrawUnderlying(ctx, interactor.self, amount)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("withdrawing from venue: %w", err)
	}
	rb.push("return withdrawal to venue", func(ctx context.Context) error {
		return interactor.venue.DepositUnderlying(ctx, interactor.self, amount)
	})

	if err := interactor.save(ctx, update); err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, err)
	}
	rb.push("restore persisted state", func(ctx context.Context) error {
		return interactor.save(ctx, prior)
	})

	err = interactor.asset.Transfer(ctx, interactor.self, account, amount)
	if err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, fmt.Errorf("paying redemption: %w", err))
	}

	state.Apply(update)
	return burned, nil
}

// TakeEarnings sends all uncollected yield to the operator and returns the collected amount.
func (interactor *LedgerInteractor) TakeEarnings(ctx context.Context, caller domain.Account) (sdkmath.Uint, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	collected, err := interactor.takeEarnings(ctx, caller)
	interactor.report(domain.OperationTakeEarnings, caller, collected, sdkmath.ZeroUint(), err)
	return collected, err
}

func (interactor *LedgerInteractor) takeEarnings(ctx context.Context, caller domain.Account) (sdkmath.Uint, error) {
	state := interactor.state
	if caller != state.Operator {
		return sdkmath.ZeroUint(), domain.ErrorUnauthorized
	}

	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("reading venue balance: %w", err)
	}

	earning := subFloor(venueBalance, state.TotalLocked)
	if earning.IsZero() {
		return earning, domain.ErrorNothingToCollect
	}
	burned := mulDiv(earning, state.TotalShares, venueBalance)

	prior := state.Capture(domain.OperationRollback)
	prior.Operation = interactor.operation(domain.OperationRollback, caller, earning, burned)

	update := state.Capture(domain.OperationTakeEarnings)
	update.Totals.TotalShares = update.Totals.TotalShares.Sub(burned)
	update.Totals.TotalEarnings = update.Totals.TotalEarnings.Add(earning)
	update.Totals.Epoch++
	update.Totals.EpochShares = update.Totals.TotalShares
	update.Totals.EpochLocked = update.Totals.TotalLocked
	update.Operation = interactor.operation(domain.OperationTakeEarnings, caller, earning, burned)

	var rb rollback

	err = interactor.venue.WithdrawUnderlying(ctx, interactor.self, earning)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("withdrawing earnings from venue: %w", err)
	}
	rb.push("return earnings to venue", func(ctx context.Context) error {
		return interactor.venue.DepositUnderlying(ctx, interactor.self, earning)
	})

	if err := interactor.save(ctx, update); err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, err)
	}
	rb.push("restore persisted state", func(ctx context.Context) error {
		return interactor.save(ctx, prior)
	})

	err = interactor.asset.Transfer(ctx, interactor.self, state.Operator, earning)
	if err != nil {
		return sdkmath.ZeroUint(), interactor.abort(ctx, &rb, fmt.Errorf("paying earnings: %w", err))
	}

	state.Apply(update)
	return earning, nil
}

//-------------------------------------------------------------------
// Reads

// GetUpdatedAccountTokens is the account's share balance including collections it has not
// seen yet. Prefer it over AccountTokens.
func (interactor *LedgerInteractor) GetUpdatedAccountTokens(account domain.Account) sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	return projectShares(interactor.state.PoolTotals, interactor.state.Account(account))
}

func (interactor *LedgerInteractor) BalanceOf(account domain.Account) sdkmath.Uint {
	return interactor.GetUpdatedAccountTokens(account)
}

// EarningsOf is the part of the uncollected yield backed by the account's shares.
func (interactor *LedgerInteractor) EarningsOf(ctx context.Context, account domain.Account) (sdkmath.Uint, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("reading venue balance: %w", err)
	}

	state := interactor.state
	acct := state.Account(account)
	value := valueOf(projectShares(state.PoolTotals, acct), state.TotalShares, venueBalance)
	return subFloor(value, acct.Principal), nil
}

// GetCurrentEarning is the yield not yet collected by the operator. It is read from the venue
// on every call.
func (interactor *LedgerInteractor) GetCurrentEarning(ctx context.Context) (sdkmath.Uint, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	return interactor.currentEarning(ctx)
}

func (interactor *LedgerInteractor) GetTotalEarning(ctx context.Context) (sdkmath.Uint, error) {
	return interactor.GetCurrentEarning(ctx)
}

func (interactor *LedgerInteractor) currentEarning(ctx context.Context) (sdkmath.Uint, error) {
	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return sdkmath.ZeroUint(), fmt.Errorf("reading venue balance: %w", err)
	}
	return subFloor(venueBalance, interactor.state.TotalLocked), nil
}

func (interactor *LedgerInteractor) TotalTokens() sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state.TotalShares
}

func (interactor *LedgerInteractor) TotalLockedUnderlying() sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state.TotalLocked
}

// TotalEarnings is the yield collected by the operator so far.
func (interactor *LedgerInteractor) TotalEarnings() sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state.TotalEarnings
}

// AccountTokens is the stored share balance, stale after a collection the account has not
// been touched since. See GetUpdatedAccountTokens.
func (interactor *LedgerInteractor) AccountTokens(account domain.Account) sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state.Account(account).Shares
}

func (interactor *LedgerInteractor) AccountUnderlying(account domain.Account) sdkmath.Uint {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state.Account(account).Principal
}

func (interactor *LedgerInteractor) Operator() domain.Account {
	return interactor.state.Operator
}

func (interactor *LedgerInteractor) Self() domain.Account {
	return interactor.self
}

// Statistic reads the totals and the live venue balance under one lock.
func (interactor *LedgerInteractor) Statistic(ctx context.Context) (*domain.StatisticResult, error) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	venueBalance, err := interactor.venue.BalanceOfUnderlying(ctx, interactor.self)
	if err != nil {
		return nil, fmt.Errorf("reading venue balance: %w", err)
	}

	state := interactor.state
	return &domain.StatisticResult{
		TotalShares:    state.TotalShares,
		TotalLocked:    state.TotalLocked,
		TotalEarnings:  state.TotalEarnings,
		CurrentEarning: subFloor(venueBalance, state.TotalLocked),
		VenueBalance:   venueBalance,
		Accounts:       len(state.Accounts),
		Epoch:          state.Epoch,
	}, nil
}

//-------------------------------------------------------------------

func (interactor *LedgerInteractor) operation(kind string, account domain.Account, amount, shares sdkmath.Uint) domain.Operation {
	return domain.Operation{
		Kind:    kind,
		Account: account,
		Amount:  amount,
		Shares:  shares,
		Time:    interactor.now(),
	}
}

func (interactor *LedgerInteractor) save(ctx context.Context, update *domain.PoolUpdate) error {
	if interactor.store == nil {
		return nil
	}
	if err := interactor.store.Save(ctx, update); err != nil {
		return fmt.Errorf("persisting pool state: %w", err)
	}
	return nil
}

func (interactor *LedgerInteractor) abort(ctx context.Context, rb *rollback, cause error) error {
	err := rb.run(context.WithoutCancel(ctx), cause)
	if errors.Is(err, domain.ErrorRollbackFailed) {
		interactor.exporter.IncRollbackFailureCount()
		interactor.logger.Error().Err(err).Msg("🔴 rollback incomplete, pool and collaborators may disagree")
	}
	return err
}

func (interactor *LedgerInteractor) report(kind string, account domain.Account, amount, shares sdkmath.Uint, err error) {
	if err != nil {
		interactor.exporter.IncErrorCount(kind)
		interactor.logger.Warn().
			Err(err).
			Str("operation", kind).
			Str("account", account.ToRaw()).
			Msg("operation rejected")
		return
	}

	interactor.exporter.IncOperationCount(kind)
	interactor.exporter.SetTotals(interactor.state.PoolTotals)
	interactor.logger.Info().
		Str("operation", kind).
		Str("account", account.ToRaw()).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("operation done")
}
