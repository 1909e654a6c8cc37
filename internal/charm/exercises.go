// ABOUTME: Exercise operations for the KV record service.
// ABOUTME: Exercises may only be created under an existing routine.
package charm

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

type exerciseRecord struct {
	models.Exercise
	UserID  string `json:"userId"`
	Created int64  `json:"created"`
}

// ListExercises returns a routine's exercises ordered by Order.
func (c *Client) ListExercises(ctx context.Context, userID, routineID string) ([]models.Exercise, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if routineID == "" {
		return nil, recordstore.Errorf(http.StatusBadRequest, "routineId is required")
	}

	records, err := c.routineExercises(userID, routineID)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	out := make([]models.Exercise, 0, len(records))
	for _, r := range records {
		out = append(out, r.Exercise)
	}
	return out, nil
}

// CreateExercise stores a new exercise with defaults applied.
func (c *Client) CreateExercise(ctx context.Context, userID string, in models.ExerciseInput) (*models.Exercise, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, found, err := get[routineRecord](c, routineKey(userID, in.RoutineID)); err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	} else if !found {
		return nil, recordstore.NotFound("routine", in.RoutineID)
	}

	id := in.ID
	if id == "" {
		id = c.newID()
	} else if _, found, err := get[exerciseRecord](c, exerciseKey(userID, id)); err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	} else if found {
		return nil, recordstore.Errorf(http.StatusConflict, "exercise already exists: %s", id)
	}

	rec := exerciseRecord{Exercise: in.Exercise(id), UserID: userID, Created: c.now().UnixNano()}
	if err := c.set(exerciseKey(userID, id), rec); err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	e := rec.Exercise
	return &e, nil
}

// UpdateExercise merges a sparse patch into the stored exercise.
func (c *Client) UpdateExercise(ctx context.Context, userID, exerciseID string, patch models.ExercisePatch) (*models.Exercise, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	rec, found, err := get[exerciseRecord](c, exerciseKey(userID, exerciseID))
	if err != nil {
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	if !found {
		return nil, recordstore.NotFound("exercise", exerciseID)
	}
	if err := patch.Apply(&rec.Exercise); err != nil {
		return nil, recordstore.Invalid(err)
	}
	if err := c.set(exerciseKey(userID, exerciseID), rec); err != nil {
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	e := rec.Exercise
	return &e, nil
}

// DeleteExercise removes the exercise's photos and then the exercise,
// returning the number of photos removed.
func (c *Client) DeleteExercise(ctx context.Context, userID, exerciseID string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	key := exerciseKey(userID, exerciseID)
	if _, found, err := get[exerciseRecord](c, key); err != nil {
		return 0, fmt.Errorf("delete exercise: %w", err)
	} else if !found {
		return 0, recordstore.NotFound("exercise", exerciseID)
	}

	photoKeys, _, err := scan[photoRecord](c, photoKey(models.PhotoPrefix(userID, exerciseID)))
	if err != nil {
		return 0, fmt.Errorf("delete exercise: %w", err)
	}
	if err := c.deleteKeys(photoKeys...); err != nil {
		return 0, fmt.Errorf("delete exercise photos: %w", err)
	}
	if err := c.deleteKeys(key); err != nil {
		return 0, fmt.Errorf("delete exercise: %w", err)
	}
	return len(photoKeys), nil
}

// routineExercises returns the exercises under routineID sorted by order,
// then creation time.
func (c *Client) routineExercises(userID, routineID string) ([]exerciseRecord, error) {
	_, records, err := scan[exerciseRecord](c, ExercisePrefix+userID+":")
	if err != nil {
		return nil, err
	}
	var out []exerciseRecord
	for _, r := range records {
		if r.UserID == userID && r.RoutineID == routineID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Created < out[j].Created
	})
	return out, nil
}
