package usecase

import (
	"context"
	"errors"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"supplypool/domain"
	"supplypool/infrastructure/logger"
)

const (
	HarvestMemoKey = "harvest"
)

// MemoStore keeps small JSON memos by key.
type MemoStore interface {
	Upsert(ctx context.Context, key string, memo domain.Memorable) error
	Find(ctx context.Context, key string) (*domain.Memo, error)
}

// HarvestInteractor collects the pool earnings on behalf of the operator.
type HarvestInteractor struct {
	ledger    *LedgerInteractor
	memoStore MemoStore
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHarvestInteractor wires a harvester. memoStore may be nil.
func NewHarvestInteractor(ledger *LedgerInteractor, memoStore MemoStore) *HarvestInteractor {
	interactor := &HarvestInteractor{
		ledger:    ledger,
		memoStore: memoStore,
		logger:    logger.GetForComponent("harvest"),
		now:       time.Now,
	}
	return interactor
}

// Harvest takes the current earnings. Having nothing to collect is not an error.
func (interactor *HarvestInteractor) Harvest(ctx context.Context) (sdkmath.Uint, error) {
	collected, err := interactor.ledger.TakeEarnings(ctx, interactor.ledger.Operator())
	if errors.Is(err, domain.ErrorNothingToCollect) {
		interactor.logger.Debug().Msg("nothing to harvest")
		return sdkmath.ZeroUint(), nil
	}
	if err != nil {
		return sdkmath.ZeroUint(), err
	}

	if err := interactor.remember(ctx, collected); err != nil {
		interactor.logger.Warn().Err(err).Msg("⚠️ Failed to store harvest memo")
	}
	return collected, nil
}

// LastHarvest returns the memo of the latest harvest, or an empty one.
func (interactor *HarvestInteractor) LastHarvest(ctx context.Context) (*domain.HarvestMemo, error) {
	harvestMemo := &domain.HarvestMemo{LastCollected: sdkmath.ZeroUint()}
	if interactor.memoStore == nil {
		return harvestMemo, nil
	}

	memo, err := interactor.memoStore.Find(ctx, HarvestMemoKey)
	if err != nil || memo == nil {
		return harvestMemo, err
	}
	if err := harvestMemo.FromJson(memo.Memo); err != nil {
		return nil, err
	}
	if harvestMemo.LastCollected.IsNil() {
		harvestMemo.LastCollected = sdkmath.ZeroUint()
	}
	return harvestMemo, nil
}

func (interactor *HarvestInteractor) remember(ctx context.Context, collected sdkmath.Uint) error {
	if interactor.memoStore == nil {
		return nil
	}

	harvestMemo, err := interactor.LastHarvest(ctx)
	if err != nil {
		return err
	}
	now := interactor.now()
	harvestMemo.LastHarvestTime = &now
	harvestMemo.LastCollected = collected
	harvestMemo.Harvests++
	return interactor.memoStore.Upsert(ctx, HarvestMemoKey, harvestMemo)
}
