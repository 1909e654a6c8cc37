// ABOUTME: Output helpers shared by the CLI commands.
// ABOUTME: Column padding, truncation, date defaults and exercise summaries.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harperreed/pump/internal/models"
)

var faint = color.New(color.Faint)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// dateOrToday validates a --date flag, defaulting to today.
func dateOrToday(date string) (string, error) {
	if date == "" {
		return models.Today(), nil
	}
	if err := models.ValidateDate(date); err != nil {
		return "", err
	}
	return date, nil
}

// exerciseSummary renders the non-zero metrics of an exercise.
func exerciseSummary(e models.Exercise) string {
	var parts []string
	if e.Sets > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d sets", e.SetsCompleted, e.Sets))
	}
	if e.Repetitions > 0 {
		parts = append(parts, fmt.Sprintf("%d reps", e.Repetitions))
	}
	if e.Weight > 0 {
		parts = append(parts, fmt.Sprintf("%g kg", e.Weight))
	}
	if e.Time != "" && e.Time != models.DefaultTime {
		parts = append(parts, e.Time)
	}
	if e.Distance > 0 {
		parts = append(parts, fmt.Sprintf("%g km", e.Distance))
	}
	return strings.Join(parts, ", ")
}

func printRoutine(r models.Routine) {
	fmt.Printf("%s %s %s\n",
		faint.Sprint(r.ID),
		faint.Sprintf("#%d", r.Order),
		r.Name)
}

func printExercise(e models.Exercise) {
	status := " "
	if e.Sets > 0 && e.SetsCompleted >= e.Sets {
		status = color.GreenString("✓")
	}
	fmt.Printf("  %s %s %s %s\n",
		status,
		faint.Sprint(e.ID),
		padRight(truncate(e.Name, 24), 24),
		exerciseSummary(e))
}
