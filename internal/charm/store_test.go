// ABOUTME: Tests for the KV record service over an in-memory badger database.
// ABOUTME: Covers ordering, cascade deletes, ownership checks and error statuses.
package charm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	n := 0
	c, err := OpenLocal("",
		WithIDFunc(func() string { n++; return fmt.Sprintf("id-%03d", n) }),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func intp(v int) *int { return &v }

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "routine:u1:r1", routineKey("u1", "r1"))
	assert.Equal(t, "exercise:u1:e1", exerciseKey("u1", "e1"))
	assert.Equal(t, "photo:u1/e1/5.jpg", photoKey(models.PhotoPath("u1", "e1", 5)))
}

func TestRoutineLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-02-14", Name: "Second", Order: 2})
	require.NoError(t, err)
	first, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-02-14", Name: "First", Order: 1})
	require.NoError(t, err)
	_, err = c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-02-15", Name: "Other day", Order: 1})
	require.NoError(t, err)
	_, err = c.CreateRoutine(ctx, "u2", models.RoutineInput{Date: "2024-02-14", Name: "Not mine", Order: 1})
	require.NoError(t, err)

	list, err := c.ListRoutines(ctx, "u1", "2024-02-14")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, "Second", list[1].Name)

	name := "Renamed"
	updated, err := c.UpdateRoutine(ctx, "u1", first.ID, models.RoutinePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "2024-02-14", updated.Date)

	_, err = c.UpdateRoutine(ctx, "u1", "missing", models.RoutinePatch{Name: &name})
	assert.True(t, recordstore.IsNotFound(err))

	_, err = c.UpdateRoutine(ctx, "u2", first.ID, models.RoutinePatch{Name: &name})
	assert.True(t, recordstore.IsNotFound(err), "other users cannot see the routine")
}

func TestCreateRoutineWithExplicitID(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{ID: "fixed", Date: "2024-01-01", Name: "Leg Day", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, "fixed", r.ID)

	_, err = c.CreateRoutine(ctx, "u1", models.RoutineInput{ID: "fixed", Date: "2024-01-01", Name: "Again", Order: 1})
	assert.Equal(t, 409, recordstore.StatusOf(err))
}

func TestValidationAndAuthStatuses(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.ListRoutines(ctx, "", "2024-01-01")
	assert.True(t, recordstore.IsUnauthenticated(err))

	_, err = c.ListRoutines(ctx, "u1", "01/01/2024")
	assert.True(t, recordstore.IsValidation(err))

	_, err = c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Order: 1})
	assert.Equal(t, 400, recordstore.StatusOf(err))

	_, err = c.ListExercises(ctx, "u1", "")
	assert.Equal(t, 400, recordstore.StatusOf(err))

	_, err = c.ListRoutines(ctx, "a:b", "2024-01-01")
	assert.Equal(t, 400, recordstore.StatusOf(err))
}

func TestExerciseDefaultsAndPatch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Push", Order: 1})
	require.NoError(t, err)

	e, err := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Bench", Sets: intp(3), Order: 1})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTime, e.Time)
	assert.Equal(t, 0, e.SetsCompleted)

	updated, err := c.UpdateExercise(ctx, "u1", e.ID, models.ExercisePatch{SetsCompleted: intp(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.SetsCompleted, "completed sets are not clamped to sets")
	assert.Equal(t, 3, updated.Sets)
	assert.Equal(t, "Bench", updated.Name)

	_, err = c.UpdateExercise(ctx, "u1", e.ID, models.ExercisePatch{Sets: intp(-1)})
	assert.True(t, recordstore.IsValidation(err))

	_, err = c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: "nope", Name: "Orphan", Order: 1})
	assert.True(t, recordstore.IsNotFound(err))
}

func TestExercisesSortedByOrder(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Pull", Order: 1})
	require.NoError(t, err)
	for i, name := range []string{"c", "a", "b"} {
		order := []int{3, 1, 2}[i]
		_, err := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: name, Order: order})
		require.NoError(t, err)
	}

	list, err := c.ListExercises(ctx, "u1", r.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestPhotosNewestFirstAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, _ := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Legs", Order: 1})
	e, err := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Squat", Order: 1})
	require.NoError(t, err)

	_, err = c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: e.ID, Data: []byte{1}, Timestamp: 100})
	require.NoError(t, err)
	p2, err := c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: e.ID, Data: []byte{2}, Timestamp: 200})
	require.NoError(t, err)
	p3, err := c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: e.ID, Data: []byte{3}})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), p3.Timestamp)
	assert.Equal(t, "u1/"+e.ID+"/200.jpg", p2.ID)

	photos, err := c.ListPhotos(ctx, "u1", e.ID)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	assert.Equal(t, p3.ID, photos[0].ID)
	assert.Equal(t, int64(100), photos[2].Timestamp)

	data, err := c.PhotoData(ctx, "u1", p2.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, data)

	require.NoError(t, c.DeletePhoto(ctx, "u1", p2.ID))
	assert.True(t, recordstore.IsNotFound(c.DeletePhoto(ctx, "u1", p2.ID)))

	_, err = c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: "missing", Data: []byte{1}})
	assert.True(t, recordstore.IsNotFound(err))
}

func TestDeletePhotoForbidden(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	err := c.DeletePhoto(ctx, "thisUser", "otherUser/ex1/123.jpg")
	require.Error(t, err)
	assert.True(t, recordstore.IsForbidden(err))
}

func TestDeleteRoutineCascades(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, _ := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Full body", Order: 1})
	keep, _ := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Keep", Order: 2})

	e1, _ := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Squat", Order: 1})
	e2, _ := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Press", Order: 2})
	other, _ := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: keep.ID, Name: "Curl", Order: 1})
	for _, id := range []string{e1.ID, e2.ID, other.ID} {
		_, err := c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: id, Data: []byte{9}, Timestamp: 1})
		require.NoError(t, err)
	}

	n, err := c.DeleteRoutine(ctx, "u1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, _ := c.ListRoutines(ctx, "u1", "2024-01-01")
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	exercises, _ := c.ListExercises(ctx, "u1", r.ID)
	assert.Empty(t, exercises)
	photos, _ := c.ListPhotos(ctx, "u1", e1.ID)
	assert.Empty(t, photos)
	photos, _ = c.ListPhotos(ctx, "u1", other.ID)
	assert.Len(t, photos, 1)

	_, err = c.DeleteRoutine(ctx, "u1", r.ID)
	assert.True(t, recordstore.IsNotFound(err))
}

func TestDeleteExerciseReportsPhotos(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	r, _ := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-01-01", Name: "Arms", Order: 1})
	e, _ := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Curl", Order: 1})
	for ts := int64(1); ts <= 3; ts++ {
		_, err := c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: e.ID, Data: []byte{1}, Timestamp: ts})
		require.NoError(t, err)
	}

	n, err := c.DeleteExercise(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = c.DeleteExercise(ctx, "u1", e.ID)
	assert.True(t, recordstore.IsNotFound(err))
}

func TestResetUnsupportedLocally(t *testing.T) {
	c := newTestClient(t)
	err := c.Reset()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "charm"))
	assert.False(t, c.IsReadOnly())
	assert.NoError(t, c.Sync())
}
