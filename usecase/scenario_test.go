package usecase

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplypool/domain"
	"supplypool/infrastructure/simulated"
)

func TestScenarioRedeemAndTake(t *testing.T) {
	scenario := &domain.Scenario{
		Name:     "redeem then take",
		Operator: "alice",
		Funding: []domain.ScenarioFunding{
			{Account: "alice", Amount: "100e18"},
			{Account: "carol", Amount: "100e18"},
		},
		Steps: []domain.ScenarioStep{
			{Action: domain.StepMint, Account: "alice", Amount: "25e18"},
			{Action: domain.StepProfit, Account: "carol", Amount: "100"},
			{Action: domain.StepRedeem, Account: "alice", Amount: "25e18"},
			{Action: domain.StepTake, Account: "bob", ExpectError: "unauthorized"},
			{Action: domain.StepTake},
			{Action: domain.StepTake, ExpectError: "nothing_to_collect"},
			{Action: domain.StepBalance, Account: "alice"},
			{Action: domain.StepReport},
		},
	}

	report, err := NewScenarioInteractor("DAI", 18, nil).Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, "redeem then take", report.Name)
	require.Len(t, report.Steps, len(scenario.Steps))
	assert.ErrorIs(t, report.Steps[3].Err, domain.ErrorUnauthorized)
	assert.ErrorIs(t, report.Steps[5].Err, domain.ErrorNothingToCollect)

	require.NotNil(t, report.Statistic)
	assertUint(t, sdkmath.NewUint(100), report.Statistic.TotalEarnings)
	assertUint(t, sdkmath.ZeroUint(), report.Statistic.VenueBalance)
	assertUint(t, sdkmath.NewUintFromString("100000000000000000100"), report.Balances["alice"])
	assertUint(t, sdkmath.NewUintFromString("99999999999999999900"), report.Balances["carol"])
}

func TestScenarioAccrueAndMintTwice(t *testing.T) {
	scenario := &domain.Scenario{
		Funding: []domain.ScenarioFunding{
			{Account: "alice", Amount: "100e18"},
		},
		Steps: []domain.ScenarioStep{
			{Action: domain.StepMint, Account: "alice", Amount: "25e18"},
			{Action: domain.StepAccrue, Amount: "25e18"},
			{Action: domain.StepMint, Account: "alice", Amount: "2.5e19"},
		},
	}

	report, err := NewScenarioInteractor("DAI", 18, nil).Run(context.Background(), scenario)
	require.NoError(t, err)

	assertUint(t, sdkmath.NewUintFromString("37500000000000000000"), report.Statistic.TotalShares)
	assertUint(t, tokens(25), report.Statistic.CurrentEarning)
	assert.Contains(t, report.Steps[2].Outcome, "12,500,000,000,000,000,000")
}

func TestScenarioStopsOnUnexpectedOutcome(t *testing.T) {
	scenario := &domain.Scenario{
		Funding: []domain.ScenarioFunding{
			{Account: "alice", Amount: "10"},
		},
		Steps: []domain.ScenarioStep{
			{Action: domain.StepMint, Account: "alice", Amount: "10"},
			{Action: domain.StepRedeem, Account: "alice", Amount: "5", ExpectError: "insufficient_principal"},
			{Action: domain.StepRedeem, Account: "alice", Amount: "5"},
		},
	}

	report, err := NewScenarioInteractor("DAI", 18, nil).Run(context.Background(), scenario)
	assert.ErrorIs(t, err, ErrorUnexpectedOutcome)
	require.NotNil(t, report)
	assert.Len(t, report.Steps, 2)
	assertUint(t, sdkmath.NewUint(5), report.Statistic.TotalLocked)
}

func TestScenarioRejectsUnknownInput(t *testing.T) {
	ctx := context.Background()
	interactor := NewScenarioInteractor("DAI", 18, nil)

	_, err := interactor.Run(ctx, &domain.Scenario{
		Steps: []domain.ScenarioStep{{Action: "dance"}},
	})
	assert.ErrorIs(t, err, ErrorUnknownStep)

	_, err = interactor.Run(ctx, &domain.Scenario{
		Steps: []domain.ScenarioStep{{Action: domain.StepReport, ExpectError: "meteor"}},
	})
	assert.ErrorIs(t, err, ErrorUnknownExpectation)

	_, err = interactor.Run(ctx, &domain.Scenario{
		Funding: []domain.ScenarioFunding{{Account: "alice", Amount: "ten"}},
		Steps:   []domain.ScenarioStep{{Action: domain.StepReport}},
	})
	assert.Error(t, err)
}

func TestScenarioRunsOnExistingPool(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{}
	target := &ScenarioTarget{Pool: poolAccount, State: domain.NewPoolState(carol), Store: store}
	interactor := NewScenarioInteractor("DAI", 18, nil)

	_, err := interactor.RunOn(ctx, &domain.Scenario{
		Funding: []domain.ScenarioFunding{{Account: "alice", Amount: "1000"}},
		Steps:   []domain.ScenarioStep{{Action: domain.StepMint, Account: "alice", Amount: "1000"}},
	}, target)
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(1000), target.State.TotalLocked)
	require.Len(t, store.saves, 1)

	// A later run starts with fresh collaborators and finds alice's deposit in the venue
	report, err := interactor.RunOn(ctx, &domain.Scenario{
		Steps: []domain.ScenarioStep{
			{Action: domain.StepAccrue, Amount: "10"},
			{Action: domain.StepTake},
			{Action: domain.StepRedeem, Account: "alice", Amount: "1000"},
		},
	}, target)
	require.NoError(t, err)

	assertUint(t, sdkmath.NewUint(1000), report.Balances["alice"])
	assertUint(t, sdkmath.NewUint(10), report.Balances["operator"])
	assertUint(t, sdkmath.ZeroUint(), target.State.TotalLocked)
	assertUint(t, sdkmath.NewUint(10), target.State.TotalEarnings)

	require.Len(t, store.saves, 3)
	assert.Equal(t, domain.OperationMint, store.saves[0].Operation.Kind)
	assert.Equal(t, domain.OperationTakeEarnings, store.saves[1].Operation.Kind)
	assert.Equal(t, carol, store.saves[1].Operation.Account)
	assert.Equal(t, domain.OperationRedeem, store.saves[2].Operation.Kind)
}

func TestHarvestAfterResumingPool(t *testing.T) {
	ctx := context.Background()
	state := domain.NewPoolState(carol)

	_, err := NewScenarioInteractor("DAI", 18, nil).RunOn(ctx, &domain.Scenario{
		Funding: []domain.ScenarioFunding{{Account: "alice", Amount: "1000"}},
		Steps:   []domain.ScenarioStep{{Action: domain.StepMint, Account: "alice", Amount: "1000"}},
	}, &ScenarioTarget{Pool: poolAccount, State: state})
	require.NoError(t, err)

	token := simulated.NewToken("DAI")
	market := simulated.NewMarket(marketAccount, token)
	require.NoError(t, ResumeVenue(ctx, market, poolAccount, state))
	ledger := NewLedgerInteractor(poolAccount, state, token, market, nil, nil)
	require.NoError(t, ledger.Initialize(ctx))
	require.NoError(t, market.Accrue(ctx, sdkmath.NewUint(10)))

	collected, err := NewHarvestInteractor(ledger, nil).Harvest(ctx)
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(10), collected)

	balance, err := token.BalanceOf(ctx, carol)
	require.NoError(t, err)
	assertUint(t, sdkmath.NewUint(10), balance)
}
