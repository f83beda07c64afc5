package repository

import (
	"context"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/behrang/sqlbatch"

	"supplypool/domain"
)

const (
	sqlPoolStateUpsert = `
	insert into pool_state as p (
			id, operator, total_shares, total_locked, total_earnings, epoch, epoch_shares, epoch_locked, update_time
		)
		values (
			1, $1, $2::numeric, $3::numeric, $4::numeric, $5, $6::numeric, $7::numeric, now()
		)
	on conflict (id) do
		update set
			total_shares = $2::numeric,
			total_locked = $3::numeric,
			total_earnings = $4::numeric,
			epoch = $5,
			epoch_shares = $6::numeric,
			epoch_locked = $7::numeric,
			update_time = now()
`

	sqlPoolStateFind = `
	select
		operator, total_shares::text, total_locked::text, total_earnings::text, epoch, epoch_shares::text, epoch_locked::text
	from pool_state
	where id = 1
`

	sqlPoolAccountUpsert = `
	insert into pool_accounts as a (
			address, shares, principal, epoch, update_time
		)
		values (
			$1, $2::numeric, $3::numeric, $4, now()
		)
	on conflict (address) do
		update set
			shares = $2::numeric,
			principal = $3::numeric,
			epoch = $4,
			update_time = now()
`

	sqlPoolAccountFindAll = `
	select
		address, shares::text, principal::text, epoch
	from pool_accounts
`

	sqlPoolOperationInsert = `
	insert into pool_operations (
			kind, address, amount, shares, create_time
		)
		values (
			$1, $2, $3::numeric, $4::numeric, $5
		)
`
)

// PoolRepository stores the ledger state of one pool.
type PoolRepository struct {
	batchHandler BatchHandler
	operator     domain.Account
}

func NewPoolRepository(db BatchHandler, operator domain.Account) *PoolRepository {
	return &PoolRepository{batchHandler: db, operator: operator}
}

type poolRow struct {
	Operator string
	Totals   domain.PoolTotals
}

type accountRow struct {
	Address string
	State   domain.AccountState
}

func readAllPoolStates(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := poolRow{}
	var shares, locked, earnings, epochShares, epochLocked string
	var epoch int64
	err := scan(
		&r.Operator, &shares, &locked, &earnings, &epoch, &epochShares, &epochLocked,
	)
	if err == nil {
		r.Totals.Epoch = uint64(epoch)
		err = parseUints(
			[]string{shares, locked, earnings, epochShares, epochLocked},
			[]*sdkmath.Uint{&r.Totals.TotalShares, &r.Totals.TotalLocked, &r.Totals.TotalEarnings, &r.Totals.EpochShares, &r.Totals.EpochLocked},
		)
	}

	list := memo.([]poolRow)
	list = append(list, r)
	return list, err
}

func readAllAccounts(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := accountRow{}
	var shares, principal string
	var epoch int64
	err := scan(
		&r.Address, &shares, &principal, &epoch,
	)
	if err == nil {
		r.State.Epoch = uint64(epoch)
		err = parseUints(
			[]string{shares, principal},
			[]*sdkmath.Uint{&r.State.Shares, &r.State.Principal},
		)
	}

	list := memo.([]accountRow)
	list = append(list, r)
	return list, err
}

func parseUints(values []string, targets []*sdkmath.Uint) error {
	for i, value := range values {
		u, err := sdkmath.ParseUint(value)
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", value, err)
		}
		*targets[i] = u
	}
	return nil
}

// Save writes the totals, the touched accounts and the journal entry in one transaction.
func (repo *PoolRepository) Save(ctx context.Context, update *domain.PoolUpdate) error {
	totals := update.Totals
	commands := []sqlbatch.Command{
		{
			Query: sqlPoolStateUpsert,
			Args: []interface{}{
				repo.operator.ToRaw(),
				totals.TotalShares.String(), totals.TotalLocked.String(), totals.TotalEarnings.String(),
				int64(totals.Epoch),
				totals.EpochShares.String(), totals.EpochLocked.String(),
			},
			Affect: 1,
		},
	}

	// Fixed order keeps concurrent writers from deadlocking on account rows
	accounts := make([]domain.Account, 0, len(update.Accounts))
	for account := range update.Accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ToRaw() < accounts[j].ToRaw()
	})
	for _, account := range accounts {
		acct := update.Accounts[account]
		commands = append(commands, sqlbatch.Command{
			Query: sqlPoolAccountUpsert,
			Args: []interface{}{
				account.ToRaw(), acct.Shares.String(), acct.Principal.String(), int64(acct.Epoch),
			},
			Affect: 1,
		})
	}

	if op := update.Operation; op.Kind != "" {
		commands = append(commands, sqlbatch.Command{
			Query: sqlPoolOperationInsert,
			Args: []interface{}{
				op.Kind, op.Account.ToRaw(), op.Amount.String(), op.Shares.String(), op.Time,
			},
			Affect: 1,
		})
	}

	_, err := repo.batchHandler.Batch(ctx, &BatchOptionSerializable, commands)
	return err
}

// Load rebuilds the pool state. A pool never saved before starts empty.
func (repo *PoolRepository) Load(ctx context.Context) (*domain.PoolState, error) {
	results, err := repo.batchHandler.Batch(ctx, &BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlPoolStateFind,
			Init:    make([]poolRow, 0),
			ReadAll: readAllPoolStates,
		},
		{
			Query:   sqlPoolAccountFindAll,
			Init:    make([]accountRow, 0),
			ReadAll: readAllAccounts,
		},
	})
	if err != nil {
		return nil, err
	}

	state := domain.NewPoolState(repo.operator)

	pools, _ := results[0].([]poolRow)
	if len(pools) == 0 {
		return state, nil
	}
	if pools[0].Operator != repo.operator.ToRaw() {
		return nil, fmt.Errorf("%w: stored %v, configured %v", domain.ErrorOperatorMismatch, pools[0].Operator, repo.operator.ToRaw())
	}
	state.PoolTotals = pools[0].Totals

	accounts, _ := results[1].([]accountRow)
	for _, row := range accounts {
		account, err := domain.ParseAccount(row.Address)
		if err != nil {
			return nil, err
		}
		state.Accounts[account] = row.State
	}
	return state, nil
}
