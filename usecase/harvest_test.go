package usecase

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplypool/domain"
)

type memoryMemoStore struct {
	memos map[string]string
}

func (store *memoryMemoStore) Upsert(ctx context.Context, key string, memo domain.Memorable) error {
	store.memos[key] = memo.ToJson()
	return nil
}

func (store *memoryMemoStore) Find(ctx context.Context, key string) (*domain.Memo, error) {
	memo, exist := store.memos[key]
	if !exist {
		return nil, nil
	}
	return &domain.Memo{Key: key, Memo: memo}, nil
}

func TestHarvestCollectsForOperator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)
	store := &memoryMemoStore{memos: make(map[string]string)}
	harvester := NewHarvestInteractor(f.ledger, store)
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	harvester.now = func() time.Time { return fixedTime }

	_, err := f.ledger.Mint(ctx, alice, tokens(10))
	require.NoError(t, err)
	require.NoError(t, f.market.Accrue(ctx, tokens(2)))

	collected, err := harvester.Harvest(ctx)
	require.NoError(t, err)
	assertUint(t, tokens(2), collected)
	assertUint(t, tokens(2), f.balance(t, operator))

	memo, err := harvester.LastHarvest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, memo.Harvests)
	assertUint(t, tokens(2), memo.LastCollected)
	require.NotNil(t, memo.LastHarvestTime)
	assert.True(t, memo.LastHarvestTime.Equal(fixedTime))
}

func TestHarvestWithNothingToCollect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)
	store := &memoryMemoStore{memos: make(map[string]string)}
	harvester := NewHarvestInteractor(f.ledger, store)

	collected, err := harvester.Harvest(ctx)
	require.NoError(t, err)
	assertUint(t, sdkmath.ZeroUint(), collected)
	assert.Empty(t, store.memos)

	memo, err := harvester.LastHarvest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, memo.Harvests)
	assert.Nil(t, memo.LastHarvestTime)
}

func TestHarvestCountsEveryCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)
	store := &memoryMemoStore{memos: make(map[string]string)}
	harvester := NewHarvestInteractor(f.ledger, store)

	_, err := f.ledger.Mint(ctx, alice, tokens(10))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.market.Accrue(ctx, tokens(1)))
		_, err := harvester.Harvest(ctx)
		require.NoError(t, err)
	}

	memo, err := harvester.LastHarvest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, memo.Harvests)
	assertUint(t, tokens(3), f.ledger.TotalEarnings())
	assertUint(t, tokens(10), f.ledger.AccountUnderlying(alice))
	assertUint(t, tokens(10), f.venueBalance(t))
}

func TestHarvestWithoutMemoStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, operator)
	harvester := NewHarvestInteractor(f.ledger, nil)

	_, err := f.ledger.Mint(ctx, alice, tokens(10))
	require.NoError(t, err)
	require.NoError(t, f.market.Accrue(ctx, tokens(1)))

	collected, err := harvester.Harvest(ctx)
	require.NoError(t, err)
	assertUint(t, tokens(1), collected)
}
