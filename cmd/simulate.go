package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"supplypool/domain"
	"supplypool/domain/config"
	"supplypool/domain/util"
	"supplypool/interface/exporter"
	"supplypool/usecase"
)

var scriptFile string
var persist bool

var (
	ErrorNoDatabase  = fmt.Errorf("persisting a scenario needs service_db_uri")
	ErrorPoolRunning = fmt.Errorf("the pool is running, stop it before persisting a scenario")
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Runs a scenario on a simulated pool",
	Long: `Runs the steps of a scenario file (yaml, json or toml) on a fresh pool backed by
a simulated token and lending market, then prints a report.

With --persist the scenario runs on the pool kept in the configured database instead, and
every operation is saved there, so a later 'start' resumes the pool where the scenario left it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		scenario, err := config.ReadScenario(scriptFile)
		if err != nil {
			return err
		}

		var target *usecase.ScenarioTarget
		if persist {
			target, err = persistentTarget(ctx)
			defer closeDependencies()
			if err != nil {
				return err
			}
		}

		symbol, decimals := config.GetAssetSymbol(), config.GetAssetDecimals()
		interactor := usecase.NewScenarioInteractor(symbol, decimals, exporter.NewExporter(prometheus.NewRegistry()))

		report, runErr := interactor.RunOn(ctx, scenario, target)
		if report != nil {
			printReport(report, symbol, decimals)
		}
		return runErr
	},
}

func persistentTarget(ctx context.Context) (*usecase.ScenarioTarget, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.HasDatabase() {
		return nil, ErrorNoDatabase
	}
	// A running daemon keeps its own copy of the state and would overwrite ours
	if pid, err := readPidFile(config.GetPidFile()); err == nil {
		return nil, fmt.Errorf("%w (pid %v)", ErrorPoolRunning, pid)
	}

	poolRepository, state, err := openPoolRepository(ctx)
	if err != nil {
		return nil, err
	}
	return &usecase.ScenarioTarget{
		Pool:  config.GetPoolAccountId(),
		State: state,
		Store: poolRepository,
	}, nil
}

func printReport(report *domain.ScenarioReport, symbol string, decimals int) {
	fmt.Printf("------------- SCENARIO %v -----------------\n", report.Name)
	for _, step := range report.Steps {
		mark := "✅"
		if step.Err != nil {
			mark = fmt.Sprintf("❌ %v", step.Err)
		}
		fmt.Printf("#%03d %-7v %-10v %v %v\n", step.Index, step.Step.Action, step.Step.Account, step.Outcome, mark)
	}

	if stat := report.Statistic; stat != nil {
		fmt.Printf("total shares     : %v\n", util.UnitsString(stat.TotalShares))
		fmt.Printf("total locked     : %v\n", util.AmountString(stat.TotalLocked, decimals, symbol))
		fmt.Printf("venue balance    : %v\n", util.AmountString(stat.VenueBalance, decimals, symbol))
		fmt.Printf("current earning  : %v\n", util.AmountString(stat.CurrentEarning, decimals, symbol))
		fmt.Printf("total earnings   : %v\n", util.AmountString(stat.TotalEarnings, decimals, symbol))
	}

	names := make([]string, 0, len(report.Balances))
	for name := range report.Balances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("balance %-9v: %v\n", name, util.AmountString(report.Balances[name], decimals, symbol))
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&scriptFile, "script", "scenario.yaml", "scenario file to run")
	simulateCmd.Flags().BoolVar(&persist, "persist", false, "run on the pool kept in the configured database")
}
