// ABOUTME: Copying a routine with its exercises onto another date.
// ABOUTME: The copy is not atomic; each confirmed step invalidates its own keys.
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

// CopyRoutine clones src onto destDate after the routines already there.
// Exercises are cloned with completed sets reset to zero. If an exercise
// create fails the new routine is returned alongside the error.
func (s *Syncer) CopyRoutine(ctx context.Context, src models.Routine, destDate string) (*models.Routine, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := models.ValidateDate(destDate); err != nil {
		return nil, recordstore.Invalid(err)
	}

	exercises, err := s.Exercises(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("copy routine: %w", err)
	}
	existing, err := s.Routines(ctx, destDate)
	if err != nil {
		return nil, fmt.Errorf("copy routine: %w", err)
	}

	dest, err := s.CreateRoutine(ctx, models.RoutineInput{
		Date:  destDate,
		Name:  src.Name,
		Order: models.NextRoutineOrder(existing),
	})
	if err != nil {
		return nil, fmt.Errorf("copy routine: %w", err)
	}

	for i, e := range exercises {
		if _, err := s.CreateExercise(ctx, cloneExercise(e, dest.ID)); err != nil {
			s.log.Warn("copy routine stopped partway", "routine_id", dest.ID, "copied", i, "total", len(exercises))
			return dest, fmt.Errorf("copy exercise %q: %w", e.Name, err)
		}
	}
	return dest, nil
}

func cloneExercise(e models.Exercise, routineID string) models.ExerciseInput {
	zero := 0
	return models.ExerciseInput{
		RoutineID:     routineID,
		Name:          e.Name,
		Repetitions:   &e.Repetitions,
		Weight:        &e.Weight,
		Sets:          &e.Sets,
		SetsCompleted: &zero,
		Time:          &e.Time,
		Distance:      &e.Distance,
		Order:         models.PositiveOrder(e.Order),
	}
}
