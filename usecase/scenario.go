package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"supplypool/domain"
	"supplypool/domain/util"
	"supplypool/infrastructure/logger"
	"supplypool/infrastructure/simulated"
	"supplypool/interface/exporter"
)

const (
	ScenarioPoolName   = "pool"
	ScenarioMarketName = "market"
	ScenarioOperator   = "operator"
)

var (
	ErrorUnknownStep        = fmt.Errorf("unknown scenario step")
	ErrorUnknownExpectation = fmt.Errorf("unknown expected error")
	ErrorUnexpectedOutcome  = fmt.Errorf("scenario step did not go as expected")
)

// expectableErrors are the errors a scenario step may name in expect_error.
var expectableErrors = map[string]error{
	"unauthorized":           domain.ErrorUnauthorized,
	"nothing_to_collect":     domain.ErrorNothingToCollect,
	"insufficient_balance":   domain.ErrorInsufficientBalance,
	"insufficient_allowance": domain.ErrorInsufficientAllowance,
	"insufficient_principal": domain.ErrorInsufficientPrincipal,
	"venue_cash":             domain.ErrorVenueInsufficientCash,
	"venue_shares":           domain.ErrorVenueInsufficientShares,
	"zero_amount":            domain.ErrorZeroAmount,
	"deposit_too_small":      domain.ErrorDepositTooSmall,
	"pool_insolvent":         domain.ErrorPoolInsolvent,
}

// ScenarioInteractor runs scenarios on a fresh pool backed by simulated collaborators.
type ScenarioInteractor struct {
	symbol   string
	decimals int
	exporter *exporter.Exporter
	logger   zerolog.Logger
}

func NewScenarioInteractor(symbol string, decimals int, exp *exporter.Exporter) *ScenarioInteractor {
	interactor := &ScenarioInteractor{
		symbol:   symbol,
		decimals: decimals,
		exporter: exp,
		logger:   logger.GetForComponent("scenario"),
	}
	return interactor
}

// ScenarioTarget is an existing pool a scenario runs against instead of a fresh one. Its state
// is changed in place and every operation is saved to Store.
type ScenarioTarget struct {
	Pool  domain.Account
	State *domain.PoolState
	Store PoolStore
}

type scenarioRun struct {
	token    *simulated.Token
	market   *simulated.Market
	ledger   *LedgerInteractor
	accounts map[string]domain.Account
	names    map[domain.Account]string
}

func (run *scenarioRun) bind(name string, account domain.Account) domain.Account {
	run.accounts[name] = account
	run.names[account] = name
	return account
}

func (run *scenarioRun) account(name string) domain.Account {
	if account, exist := run.accounts[name]; exist {
		return account
	}
	return run.bind(name, domain.NamedAccount(name))
}

// ResumeVenue gives a fresh simulated market the position the pool state remembers: the locked
// principal backed by all of the pool's shares.
func ResumeVenue(ctx context.Context, market *simulated.Market, pool domain.Account, state *domain.PoolState) error {
	if state.TotalShares.IsZero() || state.TotalLocked.IsZero() {
		return nil
	}
	return market.Seed(ctx, pool, state.TotalLocked, state.TotalShares)
}

// Run executes the scenario on a fresh in-memory pool.
func (interactor *ScenarioInteractor) Run(ctx context.Context, scenario *domain.Scenario) (*domain.ScenarioReport, error) {
	return interactor.RunOn(ctx, scenario, nil)
}

// RunOn executes every step in order and stops at the first step whose outcome differs from
// its expectation. The report covers the steps executed so far. A nil target means a fresh pool.
func (interactor *ScenarioInteractor) RunOn(ctx context.Context, scenario *domain.Scenario, target *ScenarioTarget) (*domain.ScenarioReport, error) {
	run := &scenarioRun{
		token:    simulated.NewToken(interactor.symbol),
		accounts: make(map[string]domain.Account),
		names:    make(map[domain.Account]string),
	}
	run.market = simulated.NewMarket(run.account(ScenarioMarketName), run.token)

	operatorName := scenario.Operator
	if operatorName == "" {
		operatorName = ScenarioOperator
	}

	var pool domain.Account
	var state *domain.PoolState
	var store PoolStore
	if target == nil {
		pool = run.account(ScenarioPoolName)
		state = domain.NewPoolState(run.account(operatorName))
	} else {
		pool = run.bind(ScenarioPoolName, target.Pool)
		state = target.State
		store = target.Store
		run.bind(operatorName, state.Operator)
		if err := ResumeVenue(ctx, run.market, pool, state); err != nil {
			return nil, err
		}
	}

	run.ledger = NewLedgerInteractor(pool, state, run.token, run.market, store, interactor.exporter)
	if err := run.ledger.Initialize(ctx); err != nil {
		return nil, err
	}

	report := &domain.ScenarioReport{Name: scenario.Name}

	for i, funding := range scenario.Funding {
		amount, err := util.ParseAmount(funding.Amount)
		if err != nil {
			return report, fmt.Errorf("funding #%d: %w", i, err)
		}
		account := run.account(funding.Account)
		if err := run.token.Mint(ctx, account, amount); err != nil {
			return report, fmt.Errorf("funding #%d: %w", i, err)
		}
		if err := run.token.Approve(ctx, account, pool, simulated.MaxUint()); err != nil {
			return report, fmt.Errorf("funding #%d: %w", i, err)
		}
	}

	for i, step := range scenario.Steps {
		result := domain.ScenarioStepResult{Index: i, Step: step}
		result.Outcome, result.Err = interactor.runStep(ctx, run, step)
		report.Steps = append(report.Steps, result)

		if err := interactor.check(step, result.Err); err != nil {
			interactor.logger.Error().Err(err).Int("step", i).Str("action", step.Action).Msg("🔴 scenario failed")
			interactor.finish(ctx, run, report)
			return report, fmt.Errorf("step #%d (%v): %w", i, step.Action, err)
		}
		interactor.logger.Info().
			Int("step", i).
			Str("action", step.Action).
			Str("account", step.Account).
			Str("outcome", result.Outcome).
			Msg("step done")
	}

	interactor.finish(ctx, run, report)
	return report, nil
}

func (interactor *ScenarioInteractor) runStep(ctx context.Context, run *scenarioRun, step domain.ScenarioStep) (string, error) {
	action := strings.ToLower(strings.TrimSpace(step.Action))

	amount := sdkmath.ZeroUint()
	if step.Amount != "" {
		var err error
		if amount, err = util.ParseAmount(step.Amount); err != nil {
			return "", err
		}
	}

	accountName := step.Account
	if accountName == "" {
		accountName = run.names[run.ledger.Operator()]
	}
	account := run.account(accountName)

	switch action {
	case domain.StepMint:
		shares, err := run.ledger.Mint(ctx, account, amount)
		return fmt.Sprintf("minted %v shares", util.UnitsString(shares)), err

	case domain.StepRedeem:
		burned, err := run.ledger.RedeemUnderlying(ctx, account, amount)
		return fmt.Sprintf("burned %v shares", util.UnitsString(burned)), err

	case domain.StepProfit:
		err := run.market.SupplyUnderlying(ctx, account, amount)
		return fmt.Sprintf("supplied %v", interactor.amount(amount)), err

	case domain.StepAccrue:
		err := run.market.Accrue(ctx, amount)
		return fmt.Sprintf("accrued %v", interactor.amount(amount)), err

	case domain.StepTake:
		collected, err := run.ledger.TakeEarnings(ctx, account)
		return fmt.Sprintf("collected %v", interactor.amount(collected)), err

	case domain.StepBalance:
		earnings, err := run.ledger.EarningsOf(ctx, account)
		return fmt.Sprintf("shares %v, principal %v, earnings %v",
			util.UnitsString(run.ledger.BalanceOf(account)),
			interactor.amount(run.ledger.AccountUnderlying(account)),
			interactor.amount(earnings)), err

	case domain.StepReport:
		stat, err := run.ledger.Statistic(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("shares %v, locked %v, venue %v, current earning %v, total earnings %v",
			util.UnitsString(stat.TotalShares),
			interactor.amount(stat.TotalLocked),
			interactor.amount(stat.VenueBalance),
			interactor.amount(stat.CurrentEarning),
			interactor.amount(stat.TotalEarnings)), nil
	}

	return "", fmt.Errorf("%w: %q", ErrorUnknownStep, step.Action)
}

func (interactor *ScenarioInteractor) check(step domain.ScenarioStep, err error) error {
	if step.ExpectError == "" {
		return err
	}

	expected, exist := expectableErrors[strings.ToLower(strings.TrimSpace(step.ExpectError))]
	if !exist {
		return fmt.Errorf("%w: %q", ErrorUnknownExpectation, step.ExpectError)
	}
	if !errors.Is(err, expected) {
		return fmt.Errorf("%w: expected %v, got %v", ErrorUnexpectedOutcome, expected, err)
	}
	return nil
}

func (interactor *ScenarioInteractor) finish(ctx context.Context, run *scenarioRun, report *domain.ScenarioReport) {
	stat, err := run.ledger.Statistic(ctx)
	if err != nil {
		interactor.logger.Warn().Err(err).Msg("⚠️ Failed to take final statistic")
	}
	report.Statistic = stat

	report.Balances = make(map[string]sdkmath.Uint, len(run.names))
	for account, name := range run.names {
		balance, err := run.token.BalanceOf(ctx, account)
		if err != nil {
			continue
		}
		report.Balances[name] = balance
	}
}

func (interactor *ScenarioInteractor) amount(value sdkmath.Uint) string {
	return util.AmountString(value, interactor.decimals, interactor.symbol)
}
