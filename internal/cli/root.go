// Package cli implements the siphor command line: a local daily scoring
// tracker. Commands operate on the same storage the daemon serves.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/daemon"
	"github.com/siphor/siphor/internal/domain"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "siphor",
	Short: "Personal daily scoring tracker",
	Long: `Siphor tracks daily gains and deductions on a per-day board, recounts
weekly goals, banks points in demand and term deposits, and keeps a
cumulative total-score history. Data lives in ~/.siphor (or $SIPHOR_HOME).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config.toml (default $SIPHOR_HOME/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the --config flag over the default location.
func loadConfig() (daemon.Config, error) {
	path := configFlag
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.LoadConfig(path)
}

// openDaemon wires the full service stack for a one-shot command. The caller
// must Close it.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return daemon.New(cfg)
}

// todayKey returns the current date key.
func todayKey() string {
	return domain.DateKey(time.Now())
}

// argOrToday reads an optional DATE positional argument.
func argOrToday(args []string) (string, error) {
	if len(args) == 0 {
		return todayKey(), nil
	}
	if !domain.ValidDateKey(args[0]) {
		return "", fmt.Errorf("bad date %q, want YYYY-MM-DD", args[0])
	}
	return args[0], nil
}
