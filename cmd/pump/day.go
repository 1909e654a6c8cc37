// ABOUTME: CLI command showing every routine of a date with its exercises.
// ABOUTME: Routines and exercises are loaded through the query cache.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dayCmd = &cobra.Command{
	Use:   "day [date]",
	Short: "Show the plan for a date",
	Long: `Show every routine planned on a date together with its exercises.

Examples:
  pump day
  pump day 2024-02-14`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var date string
		if len(args) == 1 {
			date = args[0]
		}
		date, err := dateOrToday(date)
		if err != nil {
			return err
		}

		day, err := pumpApp.Syncer.Day(cmd.Context(), date)
		if err != nil {
			return fmt.Errorf("failed to load day: %w", err)
		}

		color.New(color.Bold).Println(date)
		if len(day) == 0 {
			fmt.Println("Nothing planned.")
			return nil
		}

		var total, done int
		for _, r := range day {
			fmt.Println()
			printRoutine(r.Routine)
			for _, e := range r.Exercises {
				printExercise(e)
				total += e.Sets
				done += e.SetsCompleted
			}
		}
		if total > 0 {
			fmt.Println()
			fmt.Printf("%d/%d sets done\n", done, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dayCmd)
}
