package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"supplypool/domain/config"
	"supplypool/infrastructure/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "supplypool",
	Short: "Pooled deposit ledger over a yield venue",
	Long: `Keeps a pooled deposit ledger whose principal is supplied to a yield venue.
Depositors mint pool shares and redeem their principal, while the yield is collected
by the operator only.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is normal
		_ = godotenv.Load()

		config.LoadFile(cfgFile)
		logger.Initialize(config.GetLogLevel())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("🔴 command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}
