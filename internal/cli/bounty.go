package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/domain"
)

func init() {
	rootCmd.AddCommand(bountyCmd)
	bountyCmd.AddCommand(bountyListCmd)
	bountyCmd.AddCommand(bountyAddCmd)
	bountyCmd.AddCommand(bountyToggleCmd)
}

var bountyCmd = &cobra.Command{
	Use:   "bounty",
	Short: "Manage this week's one-off bounties",
	Long: `Bounties are free-form once-per-week tasks with a point reward. Only the
current week's list accepts edits; claiming a bounty writes a gain entry on
the claim date.`,
}

var bountyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this week's bounties",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		weekKey := domain.WeekKey(todayKey())
		items, err := d.Bounty.List(weekKey)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintf(os.Stdout, "No bounties for %s.\n", weekKey)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		for _, b := range items {
			mark := "[ ]"
			if b.CompletedDate != "" {
				mark = "[x]"
			}
			fmt.Fprintf(w, "  %s %s\t%d\t%s\n", mark, b.Title, b.Points, b.ID)
		}
		return w.Flush()
	},
}

var bountyAddCmd = &cobra.Command{
	Use:   "add TITLE POINTS",
	Short: "Add a bounty to this week",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("points must be an integer, got %q", args[1])
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		b, err := d.Bounty.Add(domain.WeekKey(todayKey()), args[0], points)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Added bounty %q (%d points): %s\n", b.Title, b.Points, b.ID)
		return nil
	},
}

var bountyToggleCmd = &cobra.Command{
	Use:   "toggle BOUNTY_ID",
	Short: "Claim or unclaim a bounty on today's board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		today := todayKey()
		b, err := d.Bounty.Toggle(domain.WeekKey(today), args[0], today)
		if err != nil {
			return err
		}
		if b.CompletedDate != "" {
			fmt.Fprintf(os.Stdout, "Claimed %q for %d points on %s.\n", b.Title, b.Points, b.CompletedDate)
		} else {
			fmt.Fprintf(os.Stdout, "Unclaimed %q.\n", b.Title)
		}
		return nil
	},
}
