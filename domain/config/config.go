package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"supplypool/domain"
)

const (
	MainNetwork = "mainnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork = fmt.Errorf("network must be equal to 'mainnet' or 'testnet' only")

	ErrorInvalidOperatorAddress = fmt.Errorf("invalid operator address")
	ErrorInvalidPoolAddress     = fmt.Errorf("invalid pool address")

	ErrorInvalidHarvestInterval   = fmt.Errorf("invalid time interval for harvest process")
	ErrorInvalidAccrueInterval    = fmt.Errorf("invalid time interval for accrue process")
	ErrorInvalidStatisticInterval = fmt.Errorf("invalid time interval for statistic process")
	ErrorInvalidAccrueAmount      = fmt.Errorf("invalid accrue amount")
	ErrorInvalidDecimals          = fmt.Errorf("asset decimals must be between 0 and 36")

	ErrorEmptyScenario = fmt.Errorf("scenario has no steps")
)

var (
	TrailingSlashRE = regexp.MustCompile("/+$")
)

var (
	dbUri   string
	network string

	operatorAddress   string
	operatorAccountId domain.Account
	poolAddress       string
	poolAccountId     domain.Account

	assetSymbol   string
	assetDecimals int

	harvestInterval   time.Duration
	accrueInterval    time.Duration
	statisticInterval time.Duration
	accrueAmount      sdkmath.Uint

	metricsAddress string
	pidFile        string
	logLevel       string
)

func init() {
	viper.SetDefault("network", MainNetwork)
	viper.SetDefault("asset_symbol", "DAI")
	viper.SetDefault("asset_decimals", 18)
	viper.SetDefault("harvest_interval", "1h")
	viper.SetDefault("accrue_interval", "1m")
	viper.SetDefault("statistic_interval", "5m")
	viper.SetDefault("accrue_amount", "0")
	viper.SetDefault("metrics_address", ":9090")
	viper.SetDefault("pid_file", "supplypool.pid")
	viper.SetDefault("log_level", "info")
}

// ReadConfig loads the configuration and validates it.
func ReadConfig(filePath string) error {
	LoadFile(filePath)
	return Validate()
}

// LoadFile reads the config file, if any, on top of the environment. Values are not
// validated until Validate is called.
func LoadFile(filePath string) {
	if filePath != "" {
		viper.SetConfigFile(filePath)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed reading config file, relying on environment")
	}
}

func Validate() error {
	if err := initializeVariables(); err != nil {
		return fmt.Errorf("configuration error - %w", err)
	}
	return nil
}

// ReadScenario decodes a scenario file. It doesn't touch the global configuration.
func ReadScenario(filePath string) (*domain.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	scenario := &domain.Scenario{}
	if err := v.Unmarshal(scenario); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrorEmptyScenario
	}
	return scenario, nil
}

// This method processes the configuration parameters and keeps the processed values
// in some variables for later accesses rapidly.
func initializeVariables() error {
	var err error

	// Database stuff, empty means the ledger lives in memory only
	dbUri = TrailingSlashRE.ReplaceAllString(viper.GetString("service_db_uri"), "")

	// Network stuff
	network = strings.TrimSpace(strings.ToLower(viper.GetString("network")))
	if network != MainNetwork && network != TestNetwork {
		return ErrorInvalidNetwork
	}

	// Operator and pool stuff
	operatorAddress = strings.TrimSpace(viper.GetString("operator_address"))
	operatorAccountId, err = domain.ParseAccount(operatorAddress)
	if err != nil {
		return ErrorInvalidOperatorAddress
	}

	poolAddress = strings.TrimSpace(viper.GetString("pool_address"))
	poolAccountId, err = domain.ParseAccount(poolAddress)
	if err != nil {
		return ErrorInvalidPoolAddress
	}

	// Asset stuff
	assetSymbol = strings.TrimSpace(viper.GetString("asset_symbol"))
	assetDecimals = viper.GetInt("asset_decimals")
	if assetDecimals < 0 || assetDecimals > 36 {
		return ErrorInvalidDecimals
	}

	//---------------------------------------------------------------
	// harvest interval
	harvestInterval, err = time.ParseDuration(viper.GetString("harvest_interval"))
	if err != nil || harvestInterval <= 0 {
		return ErrorInvalidHarvestInterval
	}

	//---------------------------------------------------------------
	// accrue interval and amount of the simulated venue
	accrueInterval, err = time.ParseDuration(viper.GetString("accrue_interval"))
	if err != nil || accrueInterval <= 0 {
		return ErrorInvalidAccrueInterval
	}
	accrueAmount, err = sdkmath.ParseUint(strings.TrimSpace(viper.GetString("accrue_amount")))
	if err != nil {
		return ErrorInvalidAccrueAmount
	}

	//---------------------------------------------------------------
	// statistic interval
	statisticInterval, err = time.ParseDuration(viper.GetString("statistic_interval"))
	if err != nil || statisticInterval <= 0 {
		return ErrorInvalidStatisticInterval
	}

	metricsAddress = strings.TrimSpace(viper.GetString("metrics_address"))
	pidFile = strings.TrimSpace(viper.GetString("pid_file"))
	logLevel = strings.TrimSpace(strings.ToLower(viper.GetString("log_level")))

	return nil
}

//-------------------------------------------------------------------
// Normal configuration values

func GetDbUri() string {
	return dbUri
}

func GetNetwork() string {
	return network
}

func GetOperatorAddress() string {
	return operatorAddress
}

func GetOperatorAccountId() domain.Account {
	return operatorAccountId
}

func GetPoolAddress() string {
	return poolAddress
}

func GetPoolAccountId() domain.Account {
	return poolAccountId
}

// GetAssetSymbol is available before Validate, straight from the loaded sources.
func GetAssetSymbol() string {
	if assetSymbol == "" {
		return strings.TrimSpace(viper.GetString("asset_symbol"))
	}
	return assetSymbol
}

func GetAssetDecimals() int {
	if assetSymbol == "" {
		return viper.GetInt("asset_decimals")
	}
	return assetDecimals
}

func GetHarvestInterval() time.Duration {
	return harvestInterval
}

func GetAccrueInterval() time.Duration {
	return accrueInterval
}

func GetAccrueAmount() sdkmath.Uint {
	return accrueAmount
}

func GetStatisticInterval() time.Duration {
	return statisticInterval
}

func GetMetricsAddress() string {
	return metricsAddress
}

// GetPidFile is available before Validate, straight from the loaded sources.
func GetPidFile() string {
	if pidFile == "" {
		return strings.TrimSpace(viper.GetString("pid_file"))
	}
	return pidFile
}

// GetLogLevel is available before Validate, straight from the loaded sources.
func GetLogLevel() string {
	if logLevel == "" {
		return strings.TrimSpace(strings.ToLower(viper.GetString("log_level")))
	}
	return logLevel
}

// -------------------------------------------------------------------
// Evaluating values

func IsTestNet() bool {
	return network == TestNetwork
}

func HasDatabase() bool {
	return dbUri != ""
}

// FormatAccount renders an account the way the configured network shows it to users.
func FormatAccount(account domain.Account) string {
	return account.ToHuman(true, IsTestNet())
}
