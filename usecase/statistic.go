package usecase

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"supplypool/domain"
	"supplypool/domain/util"
	"supplypool/infrastructure/logger"
	"supplypool/interface/exporter"
)

type StatisticInteractor struct {
	ledger   *LedgerInteractor
	exporter *exporter.Exporter
	symbol   string
	decimals int
	logger   zerolog.Logger
}

func NewStatisticInteractor(ledger *LedgerInteractor, exp *exporter.Exporter, symbol string, decimals int) *StatisticInteractor {
	interactor := &StatisticInteractor{
		ledger:   ledger,
		exporter: exp,
		symbol:   symbol,
		decimals: decimals,
		logger:   logger.GetForComponent("statistic"),
	}
	return interactor
}

// Statistic takes a snapshot of the pool, publishes it as metrics and logs it.
func (interactor *StatisticInteractor) Statistic(ctx context.Context) (*domain.StatisticResult, error) {
	result, err := interactor.ledger.Statistic(ctx)
	if err != nil {
		return nil, err
	}

	interactor.exporter.SetStatistic(result)
	interactor.logger.Info().
		Str("total_shares", util.UnitsString(result.TotalShares)).
		Str("total_locked", interactor.amount(result.TotalLocked)).
		Str("venue_balance", interactor.amount(result.VenueBalance)).
		Str("current_earning", interactor.amount(result.CurrentEarning)).
		Str("total_earnings", interactor.amount(result.TotalEarnings)).
		Int("accounts", result.Accounts).
		Uint64("epoch", result.Epoch).
		Msg("🔵 pool statistic")
	return result, nil
}

func (interactor *StatisticInteractor) amount(value sdkmath.Uint) string {
	return util.AmountString(value, interactor.decimals, interactor.symbol)
}
