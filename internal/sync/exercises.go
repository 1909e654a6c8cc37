// ABOUTME: Exercise mutations through the Syncer.
// ABOUTME: Each confirmed write invalidates the owning routine's exercises key.
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

// CreateExercise creates an exercise under in.RoutineID.
func (s *Syncer) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}
	e, err := s.store.CreateExercise(ctx, s.userID, in)
	if err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	s.cache.Invalidate(ExercisesKey(s.userID, in.RoutineID))
	return e, nil
}

// AddExercise appends a named exercise with default metrics to a routine.
func (s *Syncer) AddExercise(ctx context.Context, routineID, name string) (*models.Exercise, error) {
	existing, err := s.Exercises(ctx, routineID)
	if err != nil {
		return nil, err
	}
	return s.CreateExercise(ctx, models.ExerciseInput{
		RoutineID: routineID,
		Name:      name,
		Order:     len(existing) + 1,
	})
}

// UpdateExercise applies a sparse patch to an exercise of routineID.
func (s *Syncer) UpdateExercise(ctx context.Context, exerciseID, routineID string, patch models.ExercisePatch) (*models.Exercise, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if routineID == "" {
		return nil, recordstore.Invalid(&models.ValidationError{Field: "routineId", Reason: "is required"})
	}
	if patch.IsEmpty() {
		return nil, recordstore.Invalid(&models.ValidationError{Field: "patch", Reason: "has no fields"})
	}
	if err := patch.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}
	e, err := s.store.UpdateExercise(ctx, s.userID, exerciseID, patch)
	if err != nil {
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	s.cache.Invalidate(ExercisesKey(s.userID, routineID))
	if e.RoutineID != "" && e.RoutineID != routineID {
		s.cache.Invalidate(ExercisesKey(s.userID, e.RoutineID))
	}
	return e, nil
}

// DeleteExercise deletes an exercise of routineID with its photos and
// returns the number of photos removed.
func (s *Syncer) DeleteExercise(ctx context.Context, exerciseID, routineID string) (int, error) {
	if err := s.requireUser(); err != nil {
		return 0, err
	}
	if routineID == "" {
		return 0, recordstore.Invalid(&models.ValidationError{Field: "routineId", Reason: "is required"})
	}
	n, err := s.store.DeleteExercise(ctx, s.userID, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("delete exercise: %w", err)
	}
	s.cache.Invalidate(ExercisesKey(s.userID, routineID))
	s.cache.Invalidate(PhotosKey(s.userID, exerciseID))
	return n, nil
}
