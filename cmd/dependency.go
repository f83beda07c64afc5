package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"supplypool/domain"
	"supplypool/domain/config"
	"supplypool/infrastructure/dbhandler"
	"supplypool/infrastructure/logger"
	"supplypool/infrastructure/simulated"
	"supplypool/interface/exporter"
	"supplypool/interface/repository"
	"supplypool/usecase"
)

const marketName = "market"

func defaultDependencyInject(ctx context.Context) error {
	log := logger.GetForComponent("dependency")

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsExporter = exporter.NewExporter(registry)

	operator := config.GetOperatorAccountId()
	pool := config.GetPoolAccountId()

	state := domain.NewPoolState(operator)
	var poolStore usecase.PoolStore
	var memoStore usecase.MemoStore

	if config.HasDatabase() {
		poolRepository, loaded, err := openPoolRepository(ctx)
		if err != nil {
			return err
		}
		state = loaded
		poolStore = poolRepository
		memoStore = repository.NewMemoRepository(dbHandler)
	} else {
		log.Warn().Msg("⚠️ No database configured, the ledger lives in memory only")
	}

	token = simulated.NewToken(config.GetAssetSymbol())
	market = simulated.NewMarket(domain.NamedAccount(marketName), token)

	// The simulated venue starts empty, so it gets back the pool position the ledger remembers
	if err := usecase.ResumeVenue(ctx, market, pool, state); err != nil {
		return err
	}

	ledgerInteractor = usecase.NewLedgerInteractor(pool, state, token, market, poolStore, metricsExporter)
	if err := ledgerInteractor.Initialize(ctx); err != nil {
		return err
	}
	harvestInteractor = usecase.NewHarvestInteractor(ledgerInteractor, memoStore)
	statisticInteractor = usecase.NewStatisticInteractor(ledgerInteractor, metricsExporter, config.GetAssetSymbol(), config.GetAssetDecimals())

	metricsExporter.SetTotals(state.PoolTotals)
	return nil
}

// openPoolRepository connects to the configured database and loads the pool kept there.
func openPoolRepository(ctx context.Context) (*repository.PoolRepository, *domain.PoolState, error) {
	var err error
	dbHandler, err = dbhandler.Open(ctx, config.GetDbUri())
	if err != nil {
		return nil, nil, err
	}
	if err = dbHandler.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}

	poolRepository := repository.NewPoolRepository(dbHandler, config.GetOperatorAccountId())
	state, err := poolRepository.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return poolRepository, state, nil
}

func closeDependencies() {
	if dbHandler != nil {
		dbHandler.Close()
	}
}

var registry *prometheus.Registry
var metricsExporter *exporter.Exporter
var dbHandler *dbhandler.DBHandler
var token *simulated.Token
var market *simulated.Market
var ledgerInteractor *usecase.LedgerInteractor
var harvestInteractor *usecase.HarvestInteractor
var statisticInteractor *usecase.StatisticInteractor
