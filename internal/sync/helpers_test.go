// ABOUTME: Shared test helpers for sync package tests.
// ABOUTME: Provides a call-counting record store over in-memory badger and syncer setup.

package sync

import (
	"context"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/querycache"
	"github.com/harperreed/pump/internal/recordstore"
)

const testUser = "test-user"

// countingStore delegates to a real store, counting calls and injecting
// failures per operation name.
type countingStore struct {
	next recordstore.Client

	mu    stdsync.Mutex
	calls map[string]int
	fail  map[string]error
}

func (c *countingStore) hit(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
	return c.fail[op]
}

func (c *countingStore) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *countingStore) failOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, op)
		return
	}
	c.fail[op] = err
}

func (c *countingStore) ListRoutines(ctx context.Context, userID, date string) ([]models.Routine, error) {
	if err := c.hit("ListRoutines"); err != nil {
		return nil, err
	}
	return c.next.ListRoutines(ctx, userID, date)
}

func (c *countingStore) CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (*models.Routine, error) {
	if err := c.hit("CreateRoutine"); err != nil {
		return nil, err
	}
	return c.next.CreateRoutine(ctx, userID, in)
}

func (c *countingStore) UpdateRoutine(ctx context.Context, userID, id string, p models.RoutinePatch) (*models.Routine, error) {
	if err := c.hit("UpdateRoutine"); err != nil {
		return nil, err
	}
	return c.next.UpdateRoutine(ctx, userID, id, p)
}

func (c *countingStore) DeleteRoutine(ctx context.Context, userID, id string) (int, error) {
	if err := c.hit("DeleteRoutine"); err != nil {
		return 0, err
	}
	return c.next.DeleteRoutine(ctx, userID, id)
}

func (c *countingStore) ListExercises(ctx context.Context, userID, routineID string) ([]models.Exercise, error) {
	if err := c.hit("ListExercises"); err != nil {
		return nil, err
	}
	return c.next.ListExercises(ctx, userID, routineID)
}

func (c *countingStore) CreateExercise(ctx context.Context, userID string, in models.ExerciseInput) (*models.Exercise, error) {
	if err := c.hit("CreateExercise"); err != nil {
		return nil, err
	}
	return c.next.CreateExercise(ctx, userID, in)
}

func (c *countingStore) UpdateExercise(ctx context.Context, userID, id string, p models.ExercisePatch) (*models.Exercise, error) {
	if err := c.hit("UpdateExercise"); err != nil {
		return nil, err
	}
	return c.next.UpdateExercise(ctx, userID, id, p)
}

func (c *countingStore) DeleteExercise(ctx context.Context, userID, id string) (int, error) {
	if err := c.hit("DeleteExercise"); err != nil {
		return 0, err
	}
	return c.next.DeleteExercise(ctx, userID, id)
}

func (c *countingStore) ListPhotos(ctx context.Context, userID, exerciseID string) ([]models.Photo, error) {
	if err := c.hit("ListPhotos"); err != nil {
		return nil, err
	}
	return c.next.ListPhotos(ctx, userID, exerciseID)
}

func (c *countingStore) UploadPhoto(ctx context.Context, userID string, in models.PhotoInput) (*models.Photo, error) {
	if err := c.hit("UploadPhoto"); err != nil {
		return nil, err
	}
	return c.next.UploadPhoto(ctx, userID, in)
}

func (c *countingStore) DeletePhoto(ctx context.Context, userID, id string) error {
	if err := c.hit("DeletePhoto"); err != nil {
		return err
	}
	return c.next.DeletePhoto(ctx, userID, id)
}

// setupTestSyncer creates a syncer for testUser over a fresh in-memory store.
func setupTestSyncer(t *testing.T) (*Syncer, *countingStore) {
	t.Helper()

	backend, err := charm.OpenLocal("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := &countingStore{next: backend, calls: map[string]int{}, fail: map[string]error{}}
	return NewSyncer(store, querycache.New(), testUser, nil), store
}

func mustRoutine(t *testing.T, s *Syncer, date, name string, order int) *models.Routine {
	t.Helper()
	r, err := s.CreateRoutine(context.Background(), models.RoutineInput{Date: date, Name: name, Order: order})
	require.NoError(t, err)
	return r
}

func mustExercise(t *testing.T, s *Syncer, routineID, name string, order int) *models.Exercise {
	t.Helper()
	e, err := s.CreateExercise(context.Background(), models.ExerciseInput{RoutineID: routineID, Name: name, Order: order})
	require.NoError(t, err)
	return e
}
