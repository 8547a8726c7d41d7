package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/app/ledger"
	"github.com/siphor/siphor/internal/daemon"
	"github.com/siphor/siphor/internal/domain"
)

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.AddCommand(dayShowCmd)
	dayCmd.AddCommand(dayDropCmd)
	dayCmd.AddCommand(dayRemoveCmd)
	dayCmd.AddCommand(dayClearCmd)

	dayDropCmd.Flags().String("goal", "", "Weekly goal id to count this drop toward")
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Inspect and edit a day's board",
}

// ─── day show ───────────────────────────────────────────────────────────────

var dayShowCmd = &cobra.Command{
	Use:   "show [DATE]",
	Short: "Show a day's gains, deductions, and score",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDayShow,
}

func runDayShow(cmd *cobra.Command, args []string) error {
	dateKey, err := argOrToday(args)
	if err != nil {
		return err
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	board, err := d.Ledger.Day(dateKey)
	if err != nil {
		return err
	}
	focus, err := d.Ledger.Focus(dateKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s)\n", dateKey, domain.WeekKey(dateKey))
	printBoard(board)
	if focus.TotalSeconds > 0 {
		fmt.Fprintf(os.Stdout, "Focus: %dm tracked, %+d\n", focus.TotalSeconds/60, focus.Score)
	}
	fmt.Fprintf(os.Stdout, "Day score: %+d\n", domain.DayScore(board))
	return nil
}

func printBoard(board domain.DayLedger) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	section := func(label string, entries []domain.Entry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", label)
		for _, e := range entries {
			extra := ""
			switch {
			case e.TimerRunning:
				extra = "(timer running)"
			case e.TimerPaused:
				extra = "(timer paused)"
			case e.Count > 1:
				extra = fmt.Sprintf("x%d", e.Count)
			case e.BonusActive:
				extra = "(bonus)"
			}
			name := e.Name
			if e.CustomDescription != "" {
				name = e.CustomDescription
			}
			fmt.Fprintf(w, "  %s\t%+d\t%s\t%s\n", name, domain.Score(e), e.ID, extra)
		}
	}
	section("Gains", board.Gains)
	section("Deductions", board.Deductions)
}

// ─── day drop ───────────────────────────────────────────────────────────────

var dayDropCmd = &cobra.Command{
	Use:   "drop ITEM_NAME [DATE]",
	Short: "Drop a catalog item onto a day",
	Long: `Drop a catalog item onto a day's board. The item name must exist in the
scoring catalog (see 'siphor catalog'). Only the current day accepts edits.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDayDrop,
}

func runDayDrop(cmd *cobra.Command, args []string) error {
	dateKey, err := argOrToday(args[1:])
	if err != nil {
		return err
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	payload, err := payloadForItem(d, args[0])
	if err != nil {
		return err
	}
	if goalID, _ := cmd.Flags().GetString("goal"); goalID != "" {
		if d.Catalog.GoalByID(goalID) == nil {
			return fmt.Errorf("unknown weekly goal %q", goalID)
		}
		payload.WeeklyGoalID = goalID
	}

	board, err := d.Ledger.Drop(dateKey, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Dropped %q on %s. Day score: %+d\n",
		args[0], dateKey, domain.DayScore(board))
	return nil
}

// payloadForItem resolves a catalog item name into a drop payload.
func payloadForItem(d *daemon.Daemon, name string) (ledger.DropPayload, error) {
	categories := []struct {
		key   string
		items []domain.ScoringItem
		st    domain.ScoreType
	}{
		{"regularGains", d.Catalog.RegularGains.Items, domain.ScoreGain},
		{domain.CategoryTargetGains, d.Catalog.TargetGains.Items, domain.ScoreGain},
		{"deductions", d.Catalog.Deductions.Items, domain.ScoreDeduction},
	}
	for _, c := range categories {
		for _, item := range c.items {
			if item.Name != name {
				continue
			}
			p := ledger.DropPayload{
				ID:          item.ID,
				Name:        item.Name,
				ScoreType:   c.st,
				Criteria:    item.Criteria,
				BaseType:    item.BaseType,
				Score:       item.Score,
				CategoryKey: c.key,
			}
			if len(item.Goals) > 0 {
				p.WeeklyGoalID = item.Goals[0].ID
			}
			return p, nil
		}
	}
	return ledger.DropPayload{}, fmt.Errorf("item %q not in the scoring catalog", name)
}

// ─── day remove ─────────────────────────────────────────────────────────────

var dayRemoveCmd = &cobra.Command{
	Use:   "remove {gains|deductions} ENTRY_ID [DATE]",
	Short: "Remove an entry from a day's board",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runDayRemove,
}

func runDayRemove(cmd *cobra.Command, args []string) error {
	var list domain.ScoreType
	switch args[0] {
	case "gains":
		list = domain.ScoreGain
	case "deductions":
		list = domain.ScoreDeduction
	default:
		return fmt.Errorf("list must be gains or deductions, got %q", args[0])
	}
	dateKey, err := argOrToday(args[2:])
	if err != nil {
		return err
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	board, err := d.Ledger.Remove(dateKey, list, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed. Day score: %+d\n", domain.DayScore(board))
	return nil
}

// ─── day clear ──────────────────────────────────────────────────────────────

var dayClearCmd = &cobra.Command{
	Use:   "clear [DATE]",
	Short: "Clear every entry on a day, undoing bank deposits",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDayClear,
}

func runDayClear(cmd *cobra.Command, args []string) error {
	dateKey, err := argOrToday(args)
	if err != nil {
		return err
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Ledger.Clear(dateKey); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Cleared %s.\n", dateKey)
	return nil
}
