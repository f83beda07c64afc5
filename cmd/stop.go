package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"supplypool/domain/config"
	"supplypool/infrastructure/logger"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stops the pool's tasks",
	Long:  `Stops the pool's tasks, which are started previously by 'start' command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := readPidFile(config.GetPidFile())
		if err != nil {
			return err
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			return err
		}
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("signaling process %v: %w", pid, err)
		}

		log := logger.GetForComponent("stop")
		log.Info().Int("pid", pid).Msg("stop requested")
		return nil
	},
}

func readPidFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running pool found: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %v: %w", path, err)
	}
	return pid, nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
