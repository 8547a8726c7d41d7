package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/app/backup"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all days, goals, and bounties as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		doc, err := d.Backup.Export()
		if err != nil {
			return err
		}

		out := os.Stdout
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a backup, replacing the days it names",
	Long: `Import a JSON backup. The whole document is validated before anything is
written; a bad document changes nothing. Bank state and score history are
never part of a backup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		var doc backup.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse backup: %w", err)
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		days, err := d.Backup.Import(doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Imported %d days from %s.\n", days, args[0])
		return nil
	},
}
