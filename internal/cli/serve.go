package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API daemon",
	Long: `Start the long-running daemon: serves the HTTP API and periodically
persists running timers so a crash loses at most one tick interval.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}
