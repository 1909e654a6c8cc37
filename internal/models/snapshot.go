// ABOUTME: Versioned export snapshot: routines with nested exercises and photos.
// ABOUTME: Used for legacy export and for importing into the record store.
package models

import (
	"fmt"
)

// SnapshotVersion is the only snapshot format version understood.
const SnapshotVersion = 1

// Snapshot is a self-contained export of a user's training log.
type Snapshot struct {
	Version    int               `json:"version" yaml:"version"`
	ExportDate string            `json:"exportDate" yaml:"exportDate"`
	Routines   []SnapshotRoutine `json:"routines" yaml:"routines"`
}

// SnapshotRoutine is a routine without identity.
type SnapshotRoutine struct {
	Date      string             `json:"date" yaml:"date"`
	Name      string             `json:"name" yaml:"name"`
	Order     int                `json:"order" yaml:"order"`
	Exercises []SnapshotExercise `json:"exercises" yaml:"exercises"`
}

// SnapshotExercise carries metrics and photos inline.
type SnapshotExercise struct {
	Name          string          `json:"name" yaml:"name"`
	Repetitions   int             `json:"repetitions" yaml:"repetitions"`
	Weight        float64         `json:"weight" yaml:"weight"`
	Sets          int             `json:"sets" yaml:"sets"`
	SetsCompleted int             `json:"setsCompleted" yaml:"setsCompleted"`
	Time          string          `json:"time" yaml:"time"`
	Distance      float64         `json:"distance" yaml:"distance"`
	Order         int             `json:"order" yaml:"order"`
	Photos        []SnapshotPhoto `json:"photos,omitempty" yaml:"photos,omitempty"`
}

// SnapshotPhoto is an inline base64 image.
type SnapshotPhoto struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Base64    string `json:"base64" yaml:"base64"`
	MimeType  string `json:"mimeType" yaml:"mimeType"`
}

// NewSnapshot returns an empty snapshot stamped with today's date.
func NewSnapshot() *Snapshot {
	return &Snapshot{Version: SnapshotVersion, ExportDate: Today(), Routines: []SnapshotRoutine{}}
}

// Validate checks the version, the export date and every routine date.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("%d is not supported", s.Version)}
	}
	if s.ExportDate == "" {
		return &ValidationError{Field: "exportDate", Reason: "is required"}
	}
	for i, r := range s.Routines {
		if err := ValidateDate(r.Date); err != nil {
			return fmt.Errorf("routine %d: %w", i, err)
		}
	}
	return nil
}

// Counts returns the number of routines, exercises and photos in the snapshot.
func (s *Snapshot) Counts() (routines, exercises, photos int) {
	routines = len(s.Routines)
	for _, r := range s.Routines {
		exercises += len(r.Exercises)
		for _, e := range r.Exercises {
			photos += len(e.Photos)
		}
	}
	return routines, exercises, photos
}
