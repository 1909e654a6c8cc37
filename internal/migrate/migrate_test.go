// ABOUTME: Tests for legacy migration against an in-memory record store.
// ABOUTME: Covers ID remapping, dangling references and partial photo failures.
package migrate

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

func setupStore(t *testing.T) *charm.Client {
	t.Helper()
	store, err := charm.OpenLocal("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func jpeg(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestRunRemapsIDs(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	payload := &models.LegacyPayload{
		Routines: []models.LegacyRoutine{{ID: 1, Date: "2024-01-01", Name: "Push", Order: 1}},
		Exercises: []models.LegacyExercise{{
			ID: 10, RoutineID: 1, Name: "Bench", Repetitions: 8, Weight: 60, Sets: 3,
			SetsCompleted: 2, Time: "00:00", Order: 1,
		}},
		Photos: []models.LegacyPhoto{{ID: 100, ExerciseID: 10, Blob: jpeg("img"), Timestamp: 1700000000000}},
	}

	res, err := New(store, "u1", WithIDFunc(sequentialIDs())).Run(ctx, payload)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Routines)
	assert.Equal(t, 1, res.Exercises)
	assert.Equal(t, 1, res.Photos)
	assert.Empty(t, res.Warnings)

	routines, err := store.ListRoutines(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, "id-1", routines[0].ID)
	assert.Equal(t, "Push", routines[0].Name)

	exercises, err := store.ListExercises(ctx, "u1", "id-1")
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "id-2", exercises[0].ID)
	assert.Equal(t, 8, exercises[0].Repetitions)
	assert.Equal(t, 60.0, exercises[0].Weight)
	assert.Equal(t, 2, exercises[0].SetsCompleted)

	photos, err := store.ListPhotos(ctx, "u1", "id-2")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "u1/id-2/1700000000000.jpg", photos[0].ID)
	assert.Equal(t, int64(1700000000000), photos[0].Timestamp)
}

func TestRunSkipsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	core, logs := observer.New(zap.DebugLevel)

	payload := &models.LegacyPayload{
		Routines: []models.LegacyRoutine{{ID: 1, Date: "2024-01-01", Name: "Legs", Order: 1}},
		Exercises: []models.LegacyExercise{
			{ID: 10, RoutineID: 1, Name: "Squat", Order: 1},
			{ID: 11, RoutineID: 99, Name: "Orphan", Order: 2},
		},
		Photos: []models.LegacyPhoto{{ID: 100, ExerciseID: 11, Blob: jpeg("img"), Timestamp: 1}},
	}

	res, err := New(store, "u1", WithLogger(logger.NewWithCore(core))).Run(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Routines)
	assert.Equal(t, 2, res.Exercises)
	assert.Equal(t, 0, res.Photos)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 2, logs.FilterMessage("legacy record skipped").Len())

	routines, err := store.ListRoutines(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	exercises, err := store.ListExercises(ctx, "u1", routines[0].ID)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "Squat", exercises[0].Name)
}

func TestRunContinuesPastBadPhotos(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	core, logs := observer.New(zap.DebugLevel)

	payload := &models.LegacyPayload{
		Routines:  []models.LegacyRoutine{{ID: 1, Date: "2024-01-01", Name: "Pull", Order: 1}},
		Exercises: []models.LegacyExercise{{ID: 10, RoutineID: 1, Name: "Row", Order: 1}},
		Photos: []models.LegacyPhoto{
			{ID: 100, ExerciseID: 10, Blob: jpeg("a"), Timestamp: 1},
			{ID: 101, ExerciseID: 10, Blob: "!!not-base64!!", Timestamp: 2},
			{ID: 102, ExerciseID: 10, Blob: jpeg("c"), Timestamp: 3},
		},
	}

	res, err := New(store, "u1", WithLogger(logger.NewWithCore(core))).Run(ctx, payload)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Photos)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "photo 101"))
	assert.Equal(t, 1, logs.FilterMessage("photo migration failed").Len())
}

func TestRunReturnsPartialResultOnFailure(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	payload := &models.LegacyPayload{
		Routines: []models.LegacyRoutine{
			{ID: 1, Date: "2024-01-01", Name: "Push", Order: 1},
			{ID: 2, Date: "2024-01-02", Name: "Pull", Order: 1},
		},
		Exercises: []models.LegacyExercise{
			{ID: 10, RoutineID: 1, Name: "Bench", Order: 1},
			{ID: 11, RoutineID: 2, Name: "Row", Repetitions: -5, Order: 1},
			{ID: 12, RoutineID: 2, Name: "Curl", Order: 2},
		},
	}

	res, err := New(store, "u1").Run(ctx, payload)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Routines)
	assert.Equal(t, 1, res.Exercises)
	assert.Contains(t, err.Error(), "exercise 11")
}

func TestRunSkipsPhotosWithoutTimestamp(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	payload := &models.LegacyPayload{
		Routines:  []models.LegacyRoutine{{ID: 1, Date: "2024-01-01", Name: "Legs"}},
		Exercises: []models.LegacyExercise{{ID: 10, RoutineID: 1, Name: "Squat"}},
		Photos: []models.LegacyPhoto{
			{ID: 100, ExerciseID: 10, Blob: jpeg("a"), Timestamp: 0},
			{ID: 101, ExerciseID: 10, Blob: jpeg("b"), Timestamp: 1700000000000},
		},
	}

	res, err := New(store, "u1").Run(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Photos)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "photo 100"))

	routines, err := store.ListRoutines(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, 1, routines[0].Order, "zero legacy order becomes 1")
	exercises, err := store.ListExercises(ctx, "u1", routines[0].ID)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	photos, err := store.ListPhotos(ctx, "u1", exercises[0].ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, int64(1700000000000), photos[0].Timestamp)
}

func TestRunRequiresUser(t *testing.T) {
	_, err := New(setupStore(t), "").Run(context.Background(), &models.LegacyPayload{})
	require.Error(t, err)
	assert.True(t, recordstore.IsUnauthenticated(err))
}

func TestRunIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	payload := &models.LegacyPayload{
		Routines: []models.LegacyRoutine{{ID: 1, Date: "2024-03-01", Name: "Run", Order: 1}},
	}

	m := New(store, "u1")
	_, err := m.Run(ctx, payload)
	require.NoError(t, err)
	_, err = m.Run(ctx, payload)
	require.NoError(t, err)

	routines, err := store.ListRoutines(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, routines, 2)
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"routines":[{"id":3,"date":"2024-01-02","name":"A","order":1}],"exercises":[],"photos":[]}`))
	require.NoError(t, err)
	require.Len(t, p.Routines, 1)
	assert.Equal(t, int64(3), p.Routines[0].ID)

	_, err = DecodePayload(strings.NewReader("{"))
	assert.Error(t, err)
}
