package domain

import sdkmath "cosmossdk.io/math"

const (
	StepMint    = "mint"
	StepRedeem  = "redeem"
	StepProfit  = "profit"
	StepAccrue  = "accrue"
	StepTake    = "take"
	StepReport  = "report"
	StepBalance = "balance"
)

// Scenario is a scripted run of pool operations. Accounts are referred to by name and amounts
// are base units, e.g. "25e18".
type Scenario struct {
	Name     string            `mapstructure:"name"`
	Operator string            `mapstructure:"operator"`
	Funding  []ScenarioFunding `mapstructure:"funding"`
	Steps    []ScenarioStep    `mapstructure:"steps"`
}

type ScenarioFunding struct {
	Account string `mapstructure:"account"`
	Amount  string `mapstructure:"amount"`
}

type ScenarioStep struct {
	Action      string `mapstructure:"action"`
	Account     string `mapstructure:"account"`
	Amount      string `mapstructure:"amount"`
	ExpectError string `mapstructure:"expect_error"`
}

type ScenarioStepResult struct {
	Index   int
	Step    ScenarioStep
	Outcome string
	Err     error
}

type ScenarioReport struct {
	Name      string
	Steps     []ScenarioStepResult
	Statistic *StatisticResult
	// Balances are asset balances of every named account at the end of the run.
	Balances map[string]sdkmath.Uint
}
