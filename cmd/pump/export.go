// ABOUTME: CLI commands for exporting the legacy store and importing snapshots.
// ABOUTME: Export supports JSON, YAML and Markdown; import reads JSON or YAML.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/config"
	"github.com/harperreed/pump/internal/legacy"
)

var (
	exportOutput string
	exportDB     string
	exportBackup bool
	importLegacy bool
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export the legacy database",
	Long: `Export the legacy SQLite database as a snapshot.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown training log (for sharing)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --backup       Write to pump-backup-<date>.<ext> in the current directory
  --db           Legacy database (default: <data_dir>/legacy.db)

EXAMPLES:

  pump export json                     # Export as JSON
  pump export yaml -o backup.yaml      # Save to file
  pump export json --backup            # Save a dated backup
  pump export markdown --db old.db     # Export another database`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{legacy.FormatJSON, legacy.FormatYAML, legacy.FormatMarkdown},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		switch format {
		case legacy.FormatJSON, legacy.FormatYAML, legacy.FormatMarkdown:
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		dbPath := exportDB
		if dbPath == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dbPath = legacy.DefaultPath(cfg.GetDataDir())
		}

		store, err := legacy.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open legacy database: %w", err)
		}
		defer func() { _ = store.Close() }()

		snap, err := store.Export()
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		var buf bytes.Buffer
		if err := legacy.Encode(&buf, snap, format); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := exportOutput
		if out == "" && exportBackup {
			out = legacy.BackupName(snap, format)
		}
		if out == "" {
			fmt.Print(buf.String())
			return nil
		}
		if err := os.WriteFile(out, buf.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		color.Green("✓ Exported to %s", out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON or YAML snapshot",
	Long: `Import a snapshot produced by 'pump export'.

Routines are appended after the routines already on their date and every
record gets a new ID. The format is picked from the file extension.

By default the snapshot goes into the record store. With --legacy it is
written into the legacy database instead, in a single transaction.

EXAMPLES:

  pump import pump-backup-2024-02-14.json
  pump import backup.yaml --legacy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		format := legacy.FormatFromPath(filename)
		if format == legacy.FormatMarkdown {
			return fmt.Errorf("markdown exports cannot be imported")
		}

		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		defer func() { _ = f.Close() }()

		snap, err := legacy.Decode(f, format)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		if importLegacy {
			store, err := legacy.Open(legacy.DefaultPath(pumpApp.Config.GetDataDir()))
			if err != nil {
				return fmt.Errorf("failed to open legacy database: %w", err)
			}
			defer func() { _ = store.Close() }()
			if err := store.Import(snap); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			color.Green("✓ Imported %s into %s", filename, store.Path())
			return nil
		}

		res, err := pumpApp.Syncer.Import(cmd.Context(), snap)
		if err != nil {
			if res != nil {
				color.Yellow("⚠ Import stopped after %d routines, %d exercises, %d photos",
					res.Routines, res.Exercises, res.Photos)
			}
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", filename)
		fmt.Printf("  Routines:  %d\n", res.Routines)
		fmt.Printf("  Exercises: %d\n", res.Exercises)
		fmt.Printf("  Photos:    %d\n", res.Photos)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportDB, "db", "", "legacy database path")
	exportCmd.Flags().BoolVar(&exportBackup, "backup", false, "write a dated backup file")
	importCmd.Flags().BoolVar(&importLegacy, "legacy", false, "import into the legacy database")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
