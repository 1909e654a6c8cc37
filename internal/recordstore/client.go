// ABOUTME: Record store client contract for routines, exercises and photos.
// ABOUTME: Implementations perform no caching and no retries.
package recordstore

import (
	"context"

	"github.com/harperreed/pump/internal/models"
)

// Client is the remote keyed record service. Every call is scoped to the
// given user; an empty userID fails with status 401.
type Client interface {
	ListRoutines(ctx context.Context, userID, date string) ([]models.Routine, error)
	CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (*models.Routine, error)
	UpdateRoutine(ctx context.Context, userID, routineID string, patch models.RoutinePatch) (*models.Routine, error)
	// DeleteRoutine removes the routine with its exercises and their photos,
	// returning the number of exercises removed.
	DeleteRoutine(ctx context.Context, userID, routineID string) (int, error)

	ListExercises(ctx context.Context, userID, routineID string) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, userID string, in models.ExerciseInput) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, userID, exerciseID string, patch models.ExercisePatch) (*models.Exercise, error)
	// DeleteExercise removes the exercise and its photos, returning the
	// number of photos removed.
	DeleteExercise(ctx context.Context, userID, exerciseID string) (int, error)

	ListPhotos(ctx context.Context, userID, exerciseID string) ([]models.Photo, error)
	UploadPhoto(ctx context.Context, userID string, in models.PhotoInput) (*models.Photo, error)
	DeletePhoto(ctx context.Context, userID, photoID string) error
}
