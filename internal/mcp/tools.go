// ABOUTME: MCP tool implementations for routines, exercises and photos.
// ABOUTME: Tools read through the query cache and write through the Syncer.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_routines",
		Description: "List the routines planned on a date, in order",
	}, s.handleListRoutines)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_routine",
		Description: "Append a routine to a date",
	}, s.handleAddRoutine)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "rename_routine",
		Description: "Rename a routine",
	}, s.handleRenameRoutine)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_routine",
		Description: "Delete a routine with its exercises and photos",
	}, s.handleDeleteRoutine)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "copy_routine",
		Description: "Copy a routine and its exercises to another date, with completed sets reset",
	}, s.handleCopyRoutine)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_exercises",
		Description: "List the exercises of a routine, in order",
	}, s.handleListExercises)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_exercise",
		Description: "Append an exercise to a routine",
	}, s.handleAddExercise)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_exercise",
		Description: "Change some fields of an exercise, such as completed sets or weight",
	}, s.handleUpdateExercise)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_exercise",
		Description: "Delete an exercise and its photos",
	}, s.handleDeleteExercise)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_photos",
		Description: "List the photos of an exercise, newest first",
	}, s.handleListPhotos)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_photo",
		Description: "Delete a photo by its path",
	}, s.handleDeletePhoto)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_day",
		Description: "Get every routine of a date with its exercises",
	}, s.handleGetDay)
}

// Tool input/output types

type dateInput struct {
	Date string `json:"date,omitempty" jsonschema:"Date as YYYY-MM-DD, defaults to today"`
}

type routinesOutput struct {
	Date     string           `json:"date"`
	Routines []models.Routine `json:"routines"`
}

type addRoutineInput struct {
	Date string `json:"date,omitempty" jsonschema:"Date as YYYY-MM-DD, defaults to today"`
	Name string `json:"name,omitempty" jsonschema:"Routine name, defaults to Routine N"`
}

type routineOutput struct {
	Routine models.Routine `json:"routine"`
	Message string         `json:"message"`
}

type renameRoutineInput struct {
	ID   string `json:"id" jsonschema:"Routine ID"`
	Date string `json:"date" jsonschema:"Date the routine is on, YYYY-MM-DD"`
	Name string `json:"name" jsonschema:"New name"`
}

type routineRefInput struct {
	ID   string `json:"id" jsonschema:"Routine ID"`
	Date string `json:"date" jsonschema:"Date the routine is on, YYYY-MM-DD"`
}

type deleteOutput struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

type copyRoutineInput struct {
	ID       string `json:"id" jsonschema:"Routine ID to copy"`
	Date     string `json:"date" jsonschema:"Date the routine is on, YYYY-MM-DD"`
	DestDate string `json:"dest_date" jsonschema:"Date to copy to, YYYY-MM-DD"`
}

type routineIDInput struct {
	RoutineID string `json:"routine_id" jsonschema:"Routine ID"`
}

type exercisesOutput struct {
	RoutineID string            `json:"routine_id"`
	Exercises []models.Exercise `json:"exercises"`
}

type addExerciseInput struct {
	RoutineID   string   `json:"routine_id" jsonschema:"Routine ID"`
	Name        string   `json:"name" jsonschema:"Exercise name"`
	Repetitions *int     `json:"repetitions,omitempty" jsonschema:"Repetitions per set"`
	Weight      *float64 `json:"weight,omitempty" jsonschema:"Weight"`
	Sets        *int     `json:"sets,omitempty" jsonschema:"Planned sets"`
	Time        *string  `json:"time,omitempty" jsonschema:"Elapsed time as mm:ss or h:mm:ss"`
	Distance    *float64 `json:"distance,omitempty" jsonschema:"Distance"`
}

type exerciseOutput struct {
	Exercise models.Exercise `json:"exercise"`
	Message  string          `json:"message"`
}

type updateExerciseInput struct {
	ID            string   `json:"id" jsonschema:"Exercise ID"`
	RoutineID     string   `json:"routine_id" jsonschema:"Routine the exercise belongs to"`
	Name          *string  `json:"name,omitempty" jsonschema:"New name"`
	Repetitions   *int     `json:"repetitions,omitempty" jsonschema:"Repetitions per set"`
	Weight        *float64 `json:"weight,omitempty" jsonschema:"Weight"`
	Sets          *int     `json:"sets,omitempty" jsonschema:"Planned sets"`
	SetsCompleted *int     `json:"sets_completed,omitempty" jsonschema:"Sets completed so far"`
	Time          *string  `json:"time,omitempty" jsonschema:"Elapsed time as mm:ss or h:mm:ss"`
	Distance      *float64 `json:"distance,omitempty" jsonschema:"Distance"`
	Order         *int     `json:"order,omitempty" jsonschema:"Position within the routine"`
}

type exerciseRefInput struct {
	ID        string `json:"id" jsonschema:"Exercise ID"`
	RoutineID string `json:"routine_id" jsonschema:"Routine the exercise belongs to"`
}

type exerciseIDInput struct {
	ExerciseID string `json:"exercise_id" jsonschema:"Exercise ID"`
}

type photosOutput struct {
	ExerciseID string         `json:"exercise_id"`
	Count      int            `json:"count"`
	Photos     []models.Photo `json:"photos"`
}

type photoIDInput struct {
	ID string `json:"id" jsonschema:"Photo path, user/exercise/timestamp.jpg"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type dayExercises struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Order     int               `json:"order"`
	Exercises []models.Exercise `json:"exercises"`
}

type dayOutput struct {
	Date     string         `json:"date"`
	Routines []dayExercises `json:"routines"`
}

func dateOrToday(date string) string {
	if date == "" {
		return models.Today()
	}
	return date
}

// Tool handlers

func (s *Server) handleListRoutines(ctx context.Context, req *mcp.CallToolRequest, input dateInput) (*mcp.CallToolResult, routinesOutput, error) {
	date := dateOrToday(input.Date)
	rs, err := s.syncer.Routines(ctx, date)
	if err != nil {
		return nil, routinesOutput{}, err
	}
	if rs == nil {
		rs = []models.Routine{}
	}
	return nil, routinesOutput{Date: date, Routines: rs}, nil
}

func (s *Server) handleAddRoutine(ctx context.Context, req *mcp.CallToolRequest, input addRoutineInput) (*mcp.CallToolResult, routineOutput, error) {
	r, err := s.syncer.AddRoutine(ctx, dateOrToday(input.Date), input.Name)
	if err != nil {
		return nil, routineOutput{}, err
	}
	return nil, routineOutput{
		Routine: *r,
		Message: fmt.Sprintf("Added routine %q on %s (ID: %s)", r.Name, r.Date, r.ID),
	}, nil
}

func (s *Server) handleRenameRoutine(ctx context.Context, req *mcp.CallToolRequest, input renameRoutineInput) (*mcp.CallToolResult, routineOutput, error) {
	r, err := s.syncer.RenameRoutine(ctx, input.ID, input.Date, input.Name)
	if err != nil {
		return nil, routineOutput{}, err
	}
	return nil, routineOutput{Routine: *r, Message: fmt.Sprintf("Renamed routine to %q", r.Name)}, nil
}

func (s *Server) handleDeleteRoutine(ctx context.Context, req *mcp.CallToolRequest, input routineRefInput) (*mcp.CallToolResult, deleteOutput, error) {
	n, err := s.syncer.DeleteRoutine(ctx, input.ID, input.Date)
	if err != nil {
		return nil, deleteOutput{}, err
	}
	return nil, deleteOutput{
		Message: fmt.Sprintf("Deleted routine %s and %d exercises", input.ID, n),
		Deleted: n,
	}, nil
}

func (s *Server) handleCopyRoutine(ctx context.Context, req *mcp.CallToolRequest, input copyRoutineInput) (*mcp.CallToolResult, routineOutput, error) {
	rs, err := s.syncer.Routines(ctx, input.Date)
	if err != nil {
		return nil, routineOutput{}, err
	}
	var src *models.Routine
	for i := range rs {
		if rs[i].ID == input.ID {
			src = &rs[i]
			break
		}
	}
	if src == nil {
		return nil, routineOutput{}, recordstore.NotFound("routine", input.ID)
	}

	dest, err := s.syncer.CopyRoutine(ctx, *src, input.DestDate)
	if err != nil {
		return nil, routineOutput{}, err
	}
	return nil, routineOutput{
		Routine: *dest,
		Message: fmt.Sprintf("Copied %q to %s (ID: %s)", dest.Name, dest.Date, dest.ID),
	}, nil
}

func (s *Server) handleListExercises(ctx context.Context, req *mcp.CallToolRequest, input routineIDInput) (*mcp.CallToolResult, exercisesOutput, error) {
	es, err := s.syncer.Exercises(ctx, input.RoutineID)
	if err != nil {
		return nil, exercisesOutput{}, err
	}
	if es == nil {
		es = []models.Exercise{}
	}
	return nil, exercisesOutput{RoutineID: input.RoutineID, Exercises: es}, nil
}

func (s *Server) handleAddExercise(ctx context.Context, req *mcp.CallToolRequest, input addExerciseInput) (*mcp.CallToolResult, exerciseOutput, error) {
	existing, err := s.syncer.Exercises(ctx, input.RoutineID)
	if err != nil {
		return nil, exerciseOutput{}, err
	}
	e, err := s.syncer.CreateExercise(ctx, models.ExerciseInput{
		RoutineID:   input.RoutineID,
		Name:        input.Name,
		Repetitions: input.Repetitions,
		Weight:      input.Weight,
		Sets:        input.Sets,
		Time:        input.Time,
		Distance:    input.Distance,
		Order:       len(existing) + 1,
	})
	if err != nil {
		return nil, exerciseOutput{}, err
	}
	return nil, exerciseOutput{Exercise: *e, Message: fmt.Sprintf("Added %s (ID: %s)", e.Name, e.ID)}, nil
}

func (s *Server) handleUpdateExercise(ctx context.Context, req *mcp.CallToolRequest, input updateExerciseInput) (*mcp.CallToolResult, exerciseOutput, error) {
	patch := models.ExercisePatch{
		Name:          input.Name,
		Repetitions:   input.Repetitions,
		Weight:        input.Weight,
		Sets:          input.Sets,
		SetsCompleted: input.SetsCompleted,
		Time:          input.Time,
		Distance:      input.Distance,
		Order:         input.Order,
	}
	e, err := s.syncer.UpdateExercise(ctx, input.ID, input.RoutineID, patch)
	if err != nil {
		return nil, exerciseOutput{}, err
	}
	return nil, exerciseOutput{Exercise: *e, Message: fmt.Sprintf("Updated %s", e.Name)}, nil
}

func (s *Server) handleDeleteExercise(ctx context.Context, req *mcp.CallToolRequest, input exerciseRefInput) (*mcp.CallToolResult, deleteOutput, error) {
	n, err := s.syncer.DeleteExercise(ctx, input.ID, input.RoutineID)
	if err != nil {
		return nil, deleteOutput{}, err
	}
	return nil, deleteOutput{
		Message: fmt.Sprintf("Deleted exercise %s and %d photos", input.ID, n),
		Deleted: n,
	}, nil
}

func (s *Server) handleListPhotos(ctx context.Context, req *mcp.CallToolRequest, input exerciseIDInput) (*mcp.CallToolResult, photosOutput, error) {
	ps, err := s.syncer.Photos(ctx, input.ExerciseID)
	if err != nil {
		return nil, photosOutput{}, err
	}
	if ps == nil {
		ps = []models.Photo{}
	}
	return nil, photosOutput{ExerciseID: input.ExerciseID, Count: len(ps), Photos: ps}, nil
}

func (s *Server) handleDeletePhoto(ctx context.Context, req *mcp.CallToolRequest, input photoIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.syncer.DeletePhoto(ctx, input.ID); err != nil {
		return nil, simpleOutput{}, err
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted photo: %s", input.ID)}, nil
}

func (s *Server) handleGetDay(ctx context.Context, req *mcp.CallToolRequest, input dateInput) (*mcp.CallToolResult, dayOutput, error) {
	date := dateOrToday(input.Date)
	day, err := s.loadDay(ctx, date)
	if err != nil {
		return nil, dayOutput{}, err
	}
	return nil, day, nil
}

func (s *Server) loadDay(ctx context.Context, date string) (dayOutput, error) {
	day, err := s.syncer.Day(ctx, date)
	if err != nil {
		return dayOutput{}, err
	}
	out := dayOutput{Date: date, Routines: make([]dayExercises, 0, len(day))}
	for _, r := range day {
		es := r.Exercises
		if es == nil {
			es = []models.Exercise{}
		}
		out.Routines = append(out.Routines, dayExercises{ID: r.ID, Name: r.Name, Order: r.Order, Exercises: es})
	}
	return out, nil
}
