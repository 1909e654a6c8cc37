// ABOUTME: CLI commands for routines: list, add, rename, rm and copy.
// ABOUTME: Routines are addressed by ID together with the date they are on.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

var routineDate string

var routineCmd = &cobra.Command{
	Use:     "routine",
	Aliases: []string{"r"},
	Short:   "Manage routines",
	Long: `Manage the routines planned on a date.

Every subcommand works on today unless --date YYYY-MM-DD is given.

EXAMPLES:

  pump routine list --date 2024-02-14
  pump routine add "Leg Day"
  pump routine rename <id> "Push Day"
  pump routine copy <id> 2024-02-21
  pump routine rm <id>`,
}

var routineListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List routines on a date",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(routineDate)
		if err != nil {
			return err
		}
		routines, err := pumpApp.Syncer.Routines(cmd.Context(), date)
		if err != nil {
			return fmt.Errorf("failed to list routines: %w", err)
		}
		if len(routines) == 0 {
			fmt.Printf("No routines on %s.\n", date)
			return nil
		}
		for _, r := range routines {
			printRoutine(r)
		}
		return nil
	},
}

var routineAddCmd = &cobra.Command{
	Use:     "add [name]",
	Aliases: []string{"a"},
	Short:   "Append a routine to a date",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(routineDate)
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		r, err := pumpApp.Syncer.AddRoutine(cmd.Context(), date, name)
		if err != nil {
			return fmt.Errorf("failed to add routine: %w", err)
		}
		color.Green("✓ Added %s on %s", r.Name, r.Date)
		fmt.Printf("  %s\n", faint.Sprint(r.ID))
		return nil
	},
}

var routineRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a routine",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(routineDate)
		if err != nil {
			return err
		}
		r, err := pumpApp.Syncer.RenameRoutine(cmd.Context(), args[0], date, args[1])
		if err != nil {
			return fmt.Errorf("failed to rename routine: %w", err)
		}
		color.Green("✓ Renamed to %s", r.Name)
		return nil
	},
}

var routineRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete", "del"},
	Short:   "Delete a routine with its exercises and photos",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(routineDate)
		if err != nil {
			return err
		}
		n, err := pumpApp.Syncer.DeleteRoutine(cmd.Context(), args[0], date)
		if err != nil {
			return fmt.Errorf("failed to delete routine: %w", err)
		}
		color.Green("✓ Deleted routine and %d exercises", n)
		return nil
	},
}

var routineCopyCmd = &cobra.Command{
	Use:   "copy <id> <dest-date>",
	Short: "Copy a routine and its exercises to another date",
	Long: `Copy a routine and its exercises to another date.

The copy is placed after the routines already on the destination date.
Completed sets are reset to zero.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(routineDate)
		if err != nil {
			return err
		}
		src, err := findRoutine(cmd.Context(), date, args[0])
		if err != nil {
			return err
		}
		dest, err := pumpApp.Syncer.CopyRoutine(cmd.Context(), *src, args[1])
		if err != nil {
			if dest != nil {
				color.Yellow("⚠ Copy stopped partway; %s was created on %s", dest.ID, dest.Date)
			}
			return fmt.Errorf("failed to copy routine: %w", err)
		}
		color.Green("✓ Copied %s to %s", dest.Name, dest.Date)
		fmt.Printf("  %s\n", faint.Sprint(dest.ID))
		return nil
	},
}

func findRoutine(ctx context.Context, date, id string) (*models.Routine, error) {
	routines, err := pumpApp.Syncer.Routines(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	for i := range routines {
		if routines[i].ID == id {
			return &routines[i], nil
		}
	}
	return nil, recordstore.NotFound("routine", id)
}

func init() {
	routineCmd.PersistentFlags().StringVarP(&routineDate, "date", "d", "", "date as YYYY-MM-DD (default today)")

	routineCmd.AddCommand(routineListCmd)
	routineCmd.AddCommand(routineAddCmd)
	routineCmd.AddCommand(routineRenameCmd)
	routineCmd.AddCommand(routineRmCmd)
	routineCmd.AddCommand(routineCopyCmd)
	rootCmd.AddCommand(routineCmd)
}
