// ABOUTME: CLI command for migrating a legacy SQLite database into the record store.
// ABOUTME: Numeric legacy IDs are remapped to fresh global IDs; photos are re-uploaded.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/legacy"
	"github.com/harperreed/pump/internal/migrate"
)

var (
	migrateDryRun bool
	migrateClear  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <legacy.db>",
	Short: "Migrate a legacy database into the record store",
	Long: `Migrate routines, exercises and photos from a legacy SQLite database.

Every record gets a new ID and references between them are rewritten.
Exercises or photos pointing at a missing parent are skipped with a warning.
A photo that fails to upload is reported but does not stop the migration.

IMPORTANT:

  - Migration is not idempotent: running it twice creates duplicates
  - Run with --dry-run first to see what would be migrated
  - --clear empties the legacy database only when nothing was skipped

USAGE:

  pump migrate legacy.db --dry-run   # Preview what would be migrated
  pump migrate legacy.db             # Perform the migration
  pump migrate legacy.db --clear     # Migrate, then empty legacy.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := legacy.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open legacy database: %w", err)
		}
		defer func() { _ = store.Close() }()

		payload, err := store.Payload()
		if err != nil {
			return fmt.Errorf("failed to read legacy database: %w", err)
		}

		if migrateDryRun {
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Println()
			fmt.Printf("  Routines:  %d\n", len(payload.Routines))
			fmt.Printf("  Exercises: %d\n", len(payload.Exercises))
			fmt.Printf("  Photos:    %d\n", len(payload.Photos))
			return nil
		}
		if payload.IsEmpty() {
			fmt.Println("Nothing to migrate.")
			return nil
		}

		res, err := pumpApp.Migrate(cmd.Context(), payload)
		if err != nil {
			if res != nil {
				color.Yellow("⚠ Migration stopped partway; migrated so far:")
				printMigrateResult(res)
			}
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migration complete")
		printMigrateResult(res)

		if !migrateClear {
			return nil
		}
		if len(res.Warnings) > 0 {
			color.Yellow("\nLegacy database kept because some records were skipped.")
			return nil
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear legacy database: %w", err)
		}
		color.Green("✓ Legacy database cleared")
		return nil
	},
}

func printMigrateResult(res *migrate.Result) {
	fmt.Printf("  Routines:  %d\n", res.Routines)
	fmt.Printf("  Exercises: %d\n", res.Exercises)
	fmt.Printf("  Photos:    %d\n", res.Photos)
	for _, w := range res.Warnings {
		color.Yellow("⚠ %s", w)
	}
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateClear, "clear", false, "empty the legacy database after a clean migration")
	rootCmd.AddCommand(migrateCmd)
}
