// ABOUTME: Routine, exercise and photo rows of the legacy store.
// ABOUTME: Rows carry auto-increment integer IDs and are read back as the migration payload.
package legacy

import (
	"database/sql"
	"encoding/base64"
	"fmt"

	"github.com/harperreed/pump/internal/models"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// AddRoutine inserts a routine and returns its new ID. r.ID is ignored.
func (s *Store) AddRoutine(r models.LegacyRoutine) (int64, error) {
	return addRoutine(s.db, r)
}

func addRoutine(q querier, r models.LegacyRoutine) (int64, error) {
	res, err := q.Exec(`INSERT INTO routines (date, name, sort_order) VALUES (?, ?, ?)`, r.Date, r.Name, r.Order)
	if err != nil {
		return 0, fmt.Errorf("add routine: %w", err)
	}
	return res.LastInsertId()
}

// AddExercise inserts an exercise and returns its new ID. An empty time
// is stored as models.DefaultTime.
func (s *Store) AddExercise(e models.LegacyExercise) (int64, error) {
	return addExercise(s.db, e)
}

func addExercise(q querier, e models.LegacyExercise) (int64, error) {
	t := e.Time
	if t == "" {
		t = models.DefaultTime
	}
	res, err := q.Exec(`
		INSERT INTO exercises (routine_id, name, repetitions, weight, sets, sets_completed, time, distance, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RoutineID, e.Name, e.Repetitions, e.Weight, e.Sets, e.SetsCompleted, t, e.Distance, e.Order)
	if err != nil {
		return 0, fmt.Errorf("add exercise: %w", err)
	}
	return res.LastInsertId()
}

// AddPhoto stores image bytes for an exercise and returns the new ID.
func (s *Store) AddPhoto(exerciseID int64, data []byte, mimeType string, timestamp int64) (int64, error) {
	return addPhoto(s.db, exerciseID, data, mimeType, timestamp)
}

func addPhoto(q querier, exerciseID int64, data []byte, mimeType string, timestamp int64) (int64, error) {
	if mimeType == "" {
		mimeType = models.PhotoContentType
	}
	res, err := q.Exec(`INSERT INTO exercise_photos (exercise_id, blob, mime_type, timestamp) VALUES (?, ?, ?, ?)`,
		exerciseID, data, mimeType, timestamp)
	if err != nil {
		return 0, fmt.Errorf("add photo: %w", err)
	}
	return res.LastInsertId()
}

// Routines returns all routines ordered by date then insertion.
func (s *Store) Routines() ([]models.LegacyRoutine, error) {
	rows, err := s.db.Query(`SELECT id, date, name, sort_order FROM routines ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var out []models.LegacyRoutine
	for rows.Next() {
		var r models.LegacyRoutine
		if err := rows.Scan(&r.ID, &r.Date, &r.Name, &r.Order); err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Exercises returns all exercises in insertion order.
func (s *Store) Exercises() ([]models.LegacyExercise, error) {
	return s.queryExercises(`
		SELECT id, routine_id, name, repetitions, weight, sets, sets_completed, time, distance, sort_order
		FROM exercises ORDER BY id
	`)
}

func (s *Store) routineExercises(routineID int64) ([]models.LegacyExercise, error) {
	return s.queryExercises(`
		SELECT id, routine_id, name, repetitions, weight, sets, sets_completed, time, distance, sort_order
		FROM exercises WHERE routine_id = ? ORDER BY sort_order, id
	`, routineID)
}

func (s *Store) queryExercises(query string, args ...any) ([]models.LegacyExercise, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []models.LegacyExercise
	for rows.Next() {
		var e models.LegacyExercise
		err := rows.Scan(&e.ID, &e.RoutineID, &e.Name, &e.Repetitions, &e.Weight,
			&e.Sets, &e.SetsCompleted, &e.Time, &e.Distance, &e.Order)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type photoRow struct {
	ID         int64
	ExerciseID int64
	Data       []byte
	MimeType   string
	Timestamp  int64
}

func (s *Store) queryPhotos(query string, args ...any) ([]photoRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var out []photoRow
	for rows.Next() {
		var p photoRow
		if err := rows.Scan(&p.ID, &p.ExerciseID, &p.Data, &p.MimeType, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Photos returns all photos in insertion order with base64 blobs.
func (s *Store) Photos() ([]models.LegacyPhoto, error) {
	rows, err := s.queryPhotos(`SELECT id, exercise_id, blob, mime_type, timestamp FROM exercise_photos ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]models.LegacyPhoto, 0, len(rows))
	for _, p := range rows {
		out = append(out, models.LegacyPhoto{
			ID:         p.ID,
			ExerciseID: p.ExerciseID,
			Blob:       base64.StdEncoding.EncodeToString(p.Data),
			Timestamp:  p.Timestamp,
		})
	}
	return out, nil
}

// Payload reads the whole store as a migration payload.
func (s *Store) Payload() (*models.LegacyPayload, error) {
	routines, err := s.Routines()
	if err != nil {
		return nil, err
	}
	exercises, err := s.Exercises()
	if err != nil {
		return nil, err
	}
	photos, err := s.Photos()
	if err != nil {
		return nil, err
	}
	return &models.LegacyPayload{Routines: routines, Exercises: exercises, Photos: photos}, nil
}

// Clear removes every photo, exercise and routine in one transaction.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("clear legacy store: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"exercise_photos", "exercises", "routines"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
