// ABOUTME: Legacy payload types produced by the old local-only store.
// ABOUTME: Legacy records carry small integer IDs that migration remaps.
package models

// LegacyRoutine is a routine as stored by the legacy local store.
type LegacyRoutine struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// LegacyExercise references its routine by legacy ID.
type LegacyExercise struct {
	ID            int64   `json:"id"`
	RoutineID     int64   `json:"routineId"`
	Name          string  `json:"name"`
	Repetitions   int     `json:"repetitions"`
	Weight        float64 `json:"weight"`
	Sets          int     `json:"sets"`
	SetsCompleted int     `json:"setsCompleted"`
	Time          string  `json:"time"`
	Distance      float64 `json:"distance"`
	Order         int     `json:"order"`
}

// LegacyPhoto carries base64 image bytes and the original capture time in ms.
type LegacyPhoto struct {
	ID         int64  `json:"id"`
	ExerciseID int64  `json:"exerciseId"`
	Blob       string `json:"blob"`
	Timestamp  int64  `json:"timestamp"`
}

// LegacyPayload is the bulk input of a migration.
type LegacyPayload struct {
	Routines  []LegacyRoutine  `json:"routines"`
	Exercises []LegacyExercise `json:"exercises"`
	Photos    []LegacyPhoto    `json:"photos"`
}

// IsEmpty reports whether there is nothing to migrate.
func (p *LegacyPayload) IsEmpty() bool {
	return p == nil || (len(p.Routines) == 0 && len(p.Exercises) == 0 && len(p.Photos) == 0)
}
