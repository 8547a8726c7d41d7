package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/domain"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the scoring catalog items",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		section := func(label string, items []domain.ScoringItem) {
			fmt.Fprintf(w, "%s:\n", label)
			for _, item := range items {
				detail := ""
				switch item.Type {
				case domain.ItemFixed:
					if item.Score != nil {
						detail = fmt.Sprintf("%d", *item.Score)
					}
				case domain.ItemTiered:
					detail = fmt.Sprintf("%d tiers", len(item.Criteria))
					if item.BaseType == "duration" {
						detail += ", timed"
					}
				case domain.ItemCustom:
					detail = "free-form"
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\n", item.Name, item.Type, detail)
			}
		}
		section("Regular gains", d.Catalog.RegularGains.Items)
		section("Target gains", d.Catalog.TargetGains.Items)
		section("Deductions", d.Catalog.Deductions.Items)
		return w.Flush()
	},
}
