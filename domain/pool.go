package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

const (
	OperationMint         = "mint"
	OperationRedeem       = "redeem"
	OperationTakeEarnings = "take_earnings"
	OperationRollback     = "rollback"
)

// PoolTotals are the aggregate figures of the pool.
//
// Epoch counts earnings collections. EpochShares and EpochLocked are the total shares and the
// locked principal right after the latest collection; at that instant every account's shares
// are exactly proportional to its principal.
type PoolTotals struct {
	TotalShares   sdkmath.Uint
	TotalLocked   sdkmath.Uint
	TotalEarnings sdkmath.Uint
	Epoch         uint64
	EpochShares   sdkmath.Uint
	EpochLocked   sdkmath.Uint
}

func NewPoolTotals() PoolTotals {
	return PoolTotals{
		TotalShares:   sdkmath.ZeroUint(),
		TotalLocked:   sdkmath.ZeroUint(),
		TotalEarnings: sdkmath.ZeroUint(),
		EpochShares:   sdkmath.ZeroUint(),
		EpochLocked:   sdkmath.ZeroUint(),
	}
}

// AccountState is what the pool stores per account. Shares is stale whenever Epoch is behind
// the pool's epoch.
type AccountState struct {
	Shares    sdkmath.Uint
	Principal sdkmath.Uint
	Epoch     uint64
}

func NewAccountState() AccountState {
	return AccountState{
		Shares:    sdkmath.ZeroUint(),
		Principal: sdkmath.ZeroUint(),
	}
}

// PoolState is the single ledger state of a pool. It is mutated only by applying updates.
type PoolState struct {
	PoolTotals
	Operator Account
	Accounts map[Account]AccountState
}

func NewPoolState(operator Account) *PoolState {
	return &PoolState{
		PoolTotals: NewPoolTotals(),
		Operator:   operator,
		Accounts:   make(map[Account]AccountState),
	}
}

// Account returns the stored state of an account, zero valued if it never touched the pool.
func (state *PoolState) Account(account Account) AccountState {
	if acct, exist := state.Accounts[account]; exist {
		return acct
	}
	return NewAccountState()
}

// Capture builds an update that would restore the current totals and the given accounts.
func (state *PoolState) Capture(kind string, accounts ...Account) *PoolUpdate {
	update := &PoolUpdate{
		Totals:    state.PoolTotals,
		Accounts:  make(map[Account]AccountState, len(accounts)),
		Operation: Operation{Kind: kind, Amount: sdkmath.ZeroUint(), Shares: sdkmath.ZeroUint()},
	}
	for _, account := range accounts {
		update.Accounts[account] = state.Account(account)
	}
	return update
}

func (state *PoolState) Apply(update *PoolUpdate) {
	state.PoolTotals = update.Totals
	for account, acct := range update.Accounts {
		state.Accounts[account] = acct
	}
}

// PoolUpdate is the full effect of one ledger operation.
type PoolUpdate struct {
	Totals    PoolTotals
	Accounts  map[Account]AccountState
	Operation Operation
}

// Operation is the journal entry of a ledger operation.
type Operation struct {
	Kind    string       `json:"kind"`
	Account Account      `json:"account"`
	Amount  sdkmath.Uint `json:"amount"`
	Shares  sdkmath.Uint `json:"shares"`
	Time    time.Time    `json:"time"`
}
