package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/domain"
)

func init() {
	rootCmd.AddCommand(goalsCmd)
}

var goalsCmd = &cobra.Command{
	Use:   "goals [DATE]",
	Short: "Show weekly goal progress for a date's week",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGoals,
}

func runGoals(cmd *cobra.Command, args []string) error {
	dateKey, err := argOrToday(args)
	if err != nil {
		return err
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	state, err := d.Goals.ValidateWeek(dateKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", domain.WeekKey(dateKey))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, goal := range d.Catalog.Goals() {
		progress := state.Goals[goal.ID]
		mark := " "
		if progress.Rewarded {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s\t%d/%d\treward %d\n",
			mark, goal.Name, progress.Count, goal.TargetCount, goal.RewardPoints)
	}
	return w.Flush()
}
