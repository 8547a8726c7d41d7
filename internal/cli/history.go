package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyTotalCmd)
	historyCmd.AddCommand(historyRebuildCmd)

	historyRebuildCmd.Flags().Int("initial", -1, "Reseed the pre-history total before replaying")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Cumulative total-score history",
}

var historyTotalCmd = &cobra.Command{
	Use:   "total [DATE]",
	Short: "Show the cumulative total up to a date",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateKey, err := argOrToday(args)
		if err != nil {
			return err
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		total, err := d.History.TotalUpToDate(dateKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Total through %s: %d\n", dateKey, total)
		return nil
	},
}

var historyRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the history by replaying every stored day",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if initial, _ := cmd.Flags().GetInt("initial"); initial >= 0 {
			if err := d.History.RebuildWithInitial(initial); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Rebuilt history from initial total %d.\n", initial)
			return nil
		}
		if err := d.History.Rebuild(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Rebuilt history.")
		return nil
	},
}
