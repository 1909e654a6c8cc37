// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Calls tool handlers directly against a syncer over an in-memory store.
package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/querycache"
	"github.com/harperreed/pump/internal/recordstore"
	"github.com/harperreed/pump/internal/sync"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := charm.OpenLocal("")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	server, err := NewServer(sync.NewSyncer(store, querycache.New(), "u1", nil), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

func intPtr(v int) *int { return &v }

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.syncer == nil {
		t.Error("Expected non-nil syncer")
	}

	if _, err := NewServer(nil, nil); err == nil {
		t.Error("Expected error without a syncer")
	}
}

func TestRoutineTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, added, err := server.handleAddRoutine(ctx, nil, addRoutineInput{Date: "2024-02-14"})
	if err != nil {
		t.Fatalf("add_routine failed: %v", err)
	}
	if added.Routine.Name != "Routine 1" || added.Routine.Order != 1 {
		t.Errorf("added = %+v", added.Routine)
	}

	_, renamed, err := server.handleRenameRoutine(ctx, nil, renameRoutineInput{ID: added.Routine.ID, Date: "2024-02-14", Name: "Legs"})
	if err != nil {
		t.Fatalf("rename_routine failed: %v", err)
	}
	if renamed.Routine.Name != "Legs" {
		t.Errorf("renamed = %+v", renamed.Routine)
	}

	_, listed, err := server.handleListRoutines(ctx, nil, dateInput{Date: "2024-02-14"})
	if err != nil {
		t.Fatalf("list_routines failed: %v", err)
	}
	if len(listed.Routines) != 1 || listed.Routines[0].Name != "Legs" {
		t.Errorf("listed = %+v", listed.Routines)
	}

	_, empty, err := server.handleListRoutines(ctx, nil, dateInput{Date: "2024-02-15"})
	if err != nil {
		t.Fatalf("list_routines failed: %v", err)
	}
	if empty.Routines == nil {
		t.Error("empty list should be [] not null")
	}

	_, _, err = server.handleListRoutines(ctx, nil, dateInput{Date: "14/02/2024"})
	if !recordstore.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExerciseToolsAndDay(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, r, err := server.handleAddRoutine(ctx, nil, addRoutineInput{Date: "2024-02-14", Name: "Push"})
	if err != nil {
		t.Fatalf("add_routine failed: %v", err)
	}
	routineID := r.Routine.ID

	_, bench, err := server.handleAddExercise(ctx, nil, addExerciseInput{RoutineID: routineID, Name: "Bench", Sets: intPtr(3)})
	if err != nil {
		t.Fatalf("add_exercise failed: %v", err)
	}
	if bench.Exercise.Time != models.DefaultTime || bench.Exercise.Order != 1 {
		t.Errorf("bench = %+v", bench.Exercise)
	}
	_, press, err := server.handleAddExercise(ctx, nil, addExerciseInput{RoutineID: routineID, Name: "Press"})
	if err != nil {
		t.Fatalf("add_exercise failed: %v", err)
	}
	if press.Exercise.Order != 2 {
		t.Errorf("press order = %d, want 2", press.Exercise.Order)
	}

	_, updated, err := server.handleUpdateExercise(ctx, nil, updateExerciseInput{
		ID: bench.Exercise.ID, RoutineID: routineID, SetsCompleted: intPtr(2),
	})
	if err != nil {
		t.Fatalf("update_exercise failed: %v", err)
	}
	if updated.Exercise.SetsCompleted != 2 || updated.Exercise.Sets != 3 {
		t.Errorf("updated = %+v", updated.Exercise)
	}

	_, _, err = server.handleUpdateExercise(ctx, nil, updateExerciseInput{ID: bench.Exercise.ID, RoutineID: routineID})
	if !recordstore.IsValidation(err) {
		t.Errorf("empty patch should be a validation error, got %v", err)
	}

	_, day, err := server.handleGetDay(ctx, nil, dateInput{Date: "2024-02-14"})
	if err != nil {
		t.Fatalf("get_day failed: %v", err)
	}
	if len(day.Routines) != 1 || len(day.Routines[0].Exercises) != 2 {
		t.Fatalf("day = %+v", day)
	}
	if day.Routines[0].Exercises[0].SetsCompleted != 2 {
		t.Error("get_day served a stale exercise after update")
	}

	_, del, err := server.handleDeleteExercise(ctx, nil, exerciseRefInput{ID: press.Exercise.ID, RoutineID: routineID})
	if err != nil {
		t.Fatalf("delete_exercise failed: %v", err)
	}
	if del.Deleted != 0 {
		t.Errorf("deleted photos = %d", del.Deleted)
	}

	_, listed, err := server.handleListExercises(ctx, nil, routineIDInput{RoutineID: routineID})
	if err != nil {
		t.Fatalf("list_exercises failed: %v", err)
	}
	if len(listed.Exercises) != 1 {
		t.Errorf("exercises after delete = %d", len(listed.Exercises))
	}

	_, delRoutine, err := server.handleDeleteRoutine(ctx, nil, routineRefInput{ID: routineID, Date: "2024-02-14"})
	if err != nil {
		t.Fatalf("delete_routine failed: %v", err)
	}
	if delRoutine.Deleted != 1 {
		t.Errorf("deleted exercises = %d, want 1", delRoutine.Deleted)
	}
}

func TestCopyRoutineTool(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, r, err := server.handleAddRoutine(ctx, nil, addRoutineInput{Date: "2024-02-14", Name: "Pull"})
	if err != nil {
		t.Fatalf("add_routine failed: %v", err)
	}
	_, e, err := server.handleAddExercise(ctx, nil, addExerciseInput{RoutineID: r.Routine.ID, Name: "Row", Sets: intPtr(4)})
	if err != nil {
		t.Fatalf("add_exercise failed: %v", err)
	}
	if _, _, err := server.handleUpdateExercise(ctx, nil, updateExerciseInput{
		ID: e.Exercise.ID, RoutineID: r.Routine.ID, SetsCompleted: intPtr(4),
	}); err != nil {
		t.Fatalf("update_exercise failed: %v", err)
	}

	_, copied, err := server.handleCopyRoutine(ctx, nil, copyRoutineInput{ID: r.Routine.ID, Date: "2024-02-14", DestDate: "2024-02-21"})
	if err != nil {
		t.Fatalf("copy_routine failed: %v", err)
	}
	if copied.Routine.Date != "2024-02-21" || copied.Routine.Name != "Pull" {
		t.Errorf("copied = %+v", copied.Routine)
	}

	_, es, err := server.handleListExercises(ctx, nil, routineIDInput{RoutineID: copied.Routine.ID})
	if err != nil {
		t.Fatalf("list_exercises failed: %v", err)
	}
	if len(es.Exercises) != 1 || es.Exercises[0].SetsCompleted != 0 || es.Exercises[0].Sets != 4 {
		t.Errorf("copied exercises = %+v", es.Exercises)
	}

	_, _, err = server.handleCopyRoutine(ctx, nil, copyRoutineInput{ID: "missing", Date: "2024-02-14", DestDate: "2024-02-21"})
	if !recordstore.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPhotoTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, r, _ := server.handleAddRoutine(ctx, nil, addRoutineInput{Date: "2024-02-14"})
	_, e, err := server.handleAddExercise(ctx, nil, addExerciseInput{RoutineID: r.Routine.ID, Name: "Squat"})
	if err != nil {
		t.Fatalf("add_exercise failed: %v", err)
	}
	p, err := server.syncer.UploadPhoto(ctx, models.PhotoInput{ExerciseID: e.Exercise.ID, Data: []byte("jpeg"), Timestamp: 1000})
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}

	_, photos, err := server.handleListPhotos(ctx, nil, exerciseIDInput{ExerciseID: e.Exercise.ID})
	if err != nil {
		t.Fatalf("list_photos failed: %v", err)
	}
	if photos.Count != 1 || photos.Photos[0].ID != p.ID {
		t.Errorf("photos = %+v", photos)
	}

	_, _, err = server.handleDeletePhoto(ctx, nil, photoIDInput{ID: "someone-else/ex/1.jpg"})
	if !recordstore.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}

	if _, _, err := server.handleDeletePhoto(ctx, nil, photoIDInput{ID: p.ID}); err != nil {
		t.Fatalf("delete_photo failed: %v", err)
	}
	_, photos, _ = server.handleListPhotos(ctx, nil, exerciseIDInput{ExerciseID: e.Exercise.ID})
	if photos.Count != 0 {
		t.Errorf("photo still listed after delete: %+v", photos)
	}
}

func TestTodayResource(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handleAddRoutine(ctx, nil, addRoutineInput{Name: "Today"}); err != nil {
		t.Fatalf("add_routine failed: %v", err)
	}

	res, err := server.handleTodayResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("today resource failed: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].URI != todayURI {
		t.Fatalf("unexpected contents: %+v", res.Contents)
	}

	var body struct {
		Date   string         `json:"date"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Date != models.Today() || body.Counts["routines"] != 1 {
		t.Errorf("body = %+v", body)
	}
	if !strings.Contains(res.Contents[0].Text, `"Today"`) {
		t.Error("routine name missing from resource")
	}
}
