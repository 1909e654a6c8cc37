// ABOUTME: CLI commands for the exercises of a routine.
// ABOUTME: Supports list, add, set (sparse update) and rm.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/models"
)

var (
	exReps     int
	exWeight   float64
	exSets     int
	exDone     int
	exTime     string
	exDistance float64
	exName     string
	exOrder    int
)

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex", "e"},
	Short:   "Manage the exercises of a routine",
	Long: `Manage the exercises of a routine.

METRICS:

  --reps      repetitions per set
  --weight    weight in kg
  --sets      planned sets
  --done      completed sets (set only)
  --time      elapsed time as mm:ss or h:mm:ss
  --distance  distance in km

EXAMPLES:

  pump exercise add <routine-id> Squat --sets 5 --reps 5 --weight 100
  pump exercise add <routine-id> Run --time 25:00 --distance 5
  pump exercise set <routine-id> <exercise-id> --done 2
  pump exercise list <routine-id>`,
}

var exerciseListCmd = &cobra.Command{
	Use:     "list <routine-id>",
	Aliases: []string{"ls"},
	Short:   "List the exercises of a routine",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises, err := pumpApp.Syncer.Exercises(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list exercises: %w", err)
		}
		if len(exercises) == 0 {
			fmt.Println("No exercises yet.")
			return nil
		}
		for _, e := range exercises {
			printExercise(e)
		}
		return nil
	},
}

var exerciseAddCmd = &cobra.Command{
	Use:     "add <routine-id> <name>",
	Aliases: []string{"a"},
	Short:   "Append an exercise to a routine",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		existing, err := pumpApp.Syncer.Exercises(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load routine: %w", err)
		}

		in := models.ExerciseInput{
			RoutineID: args[0],
			Name:      args[1],
			Order:     len(existing) + 1,
		}
		flags := cmd.Flags()
		if flags.Changed("reps") {
			in.Repetitions = &exReps
		}
		if flags.Changed("weight") {
			in.Weight = &exWeight
		}
		if flags.Changed("sets") {
			in.Sets = &exSets
		}
		if flags.Changed("time") {
			in.Time = &exTime
		}
		if flags.Changed("distance") {
			in.Distance = &exDistance
		}

		e, err := pumpApp.Syncer.CreateExercise(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to add exercise: %w", err)
		}
		color.Green("✓ Added %s", e.Name)
		fmt.Printf("  %s %s\n", faint.Sprint(e.ID), exerciseSummary(*e))
		return nil
	},
}

var exerciseSetCmd = &cobra.Command{
	Use:   "set <routine-id> <exercise-id>",
	Short: "Change fields of an exercise",
	Long: `Change fields of an exercise. Only the flags you pass are updated.

Examples:
  pump exercise set <routine-id> <exercise-id> --done 3
  pump exercise set <routine-id> <exercise-id> --weight 105 --reps 4`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch models.ExercisePatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &exName
		}
		if flags.Changed("reps") {
			patch.Repetitions = &exReps
		}
		if flags.Changed("weight") {
			patch.Weight = &exWeight
		}
		if flags.Changed("sets") {
			patch.Sets = &exSets
		}
		if flags.Changed("done") {
			patch.SetsCompleted = &exDone
		}
		if flags.Changed("time") {
			patch.Time = &exTime
		}
		if flags.Changed("distance") {
			patch.Distance = &exDistance
		}
		if flags.Changed("order") {
			patch.Order = &exOrder
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: pass at least one field flag")
		}

		e, err := pumpApp.Syncer.UpdateExercise(cmd.Context(), args[1], args[0], patch)
		if err != nil {
			return fmt.Errorf("failed to update exercise: %w", err)
		}
		color.Green("✓ Updated %s", e.Name)
		printExercise(*e)
		return nil
	},
}

var exerciseRmCmd = &cobra.Command{
	Use:     "rm <routine-id> <exercise-id>",
	Aliases: []string{"delete", "del"},
	Short:   "Delete an exercise and its photos",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := pumpApp.Syncer.DeleteExercise(cmd.Context(), args[1], args[0])
		if err != nil {
			return fmt.Errorf("failed to delete exercise: %w", err)
		}
		color.Green("✓ Deleted exercise and %d photos", n)
		return nil
	},
}

func addMetricFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&exReps, "reps", 0, "repetitions per set")
	cmd.Flags().Float64Var(&exWeight, "weight", 0, "weight in kg")
	cmd.Flags().IntVar(&exSets, "sets", 0, "planned sets")
	cmd.Flags().StringVar(&exTime, "time", "", "elapsed time as mm:ss")
	cmd.Flags().Float64Var(&exDistance, "distance", 0, "distance in km")
}

func init() {
	addMetricFlags(exerciseAddCmd)
	addMetricFlags(exerciseSetCmd)
	exerciseSetCmd.Flags().StringVar(&exName, "name", "", "new name")
	exerciseSetCmd.Flags().IntVar(&exDone, "done", 0, "completed sets")
	exerciseSetCmd.Flags().IntVar(&exOrder, "order", 0, "position within the routine")

	exerciseCmd.AddCommand(exerciseListCmd)
	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseSetCmd)
	exerciseCmd.AddCommand(exerciseRmCmd)
	rootCmd.AddCommand(exerciseCmd)
}
