package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"supplypool/domain/config"
	"supplypool/domain/util"
	"supplypool/infrastructure/logger"
)

const taskTimeout = 30 * time.Second

var quit = make(chan bool)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the pool's tasks",
	Long:  `Starts the pool's harvest, accrual and statistic tasks. To stop it, run 'stop' command.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.GetForComponent("start")

		if err := config.Validate(); err != nil {
			log.Fatal().Err(err).Msg("⛔️ Invalid configuration")
		}

		ctx := context.Background()
		if err := defaultDependencyInject(ctx); err != nil {
			log.Fatal().Err(err).Msg("⛔️ Unable to wire dependencies")
		}
		defer closeDependencies()

		if err := writePidFile(config.GetPidFile()); err != nil {
			log.Fatal().Err(err).Msg("⛔️ Unable to write pid file")
		}
		defer os.Remove(config.GetPidFile())

		server := serveMetrics(config.GetMetricsAddress())

		log.Info().
			Str("operator", config.FormatAccount(ledgerInteractor.Operator())).
			Str("pool", config.FormatAccount(ledgerInteractor.Self())).
			Msg("🔵 pool started")

		accrueTicker := schedule(accrue, config.GetAccrueInterval(), quit)
		harvestTicker := schedule(harvest, config.GetHarvestInterval(), quit)
		statisticTicker := schedule(statistic, config.GetStatisticInterval(), quit)

		signal.Ignore()
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		s := <-stop
		log.Info().Str("signal", s.String()).Msg("Got signal, stopping")

		close(quit)
		accrueTicker.Stop()
		harvestTicker.Stop()
		statisticTicker.Stop()

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("⚠️ Metrics server did not shut down cleanly")
		}
	},
}

func schedule(task func(), interval time.Duration, done chan bool) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {

			case <-ticker.C:
				ticker.Stop()
				task()
				ticker.Reset(interval)

			case <-done:
				return
			}
		}
	}()
	return ticker
}

func accrue() {
	amount := config.GetAccrueAmount()
	if amount.IsZero() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	log := logger.GetForComponent("accrue")
	if err := market.Accrue(ctx, amount); err != nil {
		log.Error().Err(err).Msg("🔴 Failed to accrue interest")
		return
	}
	log.Debug().Str("amount", util.AmountString(amount, config.GetAssetDecimals(), config.GetAssetSymbol())).Msg("interest accrued")
}

func harvest() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	log := logger.GetForComponent("harvest")
	collected, err := harvestInteractor.Harvest(ctx)
	if err != nil {
		log.Error().Err(err).Msg("🔴 Failed to harvest earnings")
		return
	}
	if !collected.IsZero() {
		log.Info().
			Str("collected", util.AmountString(collected, config.GetAssetDecimals(), config.GetAssetSymbol())).
			Msg("🔵 earnings harvested")
	}
}

func statistic() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if _, err := statisticInteractor.Statistic(ctx); err != nil {
		log := logger.GetForComponent("statistic")
		log.Error().Err(err).Msg("🔴 Failed to take statistic")
	}
}

func serveMetrics(address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log := logger.GetForComponent("metrics")
			log.Error().Err(err).Msg("🔴 Metrics server stopped")
		}
	}()
	return server
}

func writePidFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func init() {
	rootCmd.AddCommand(startCmd)
}
