// ABOUTME: Importing an export snapshot into the record store through the Syncer.
// ABOUTME: Imported routines are appended after the routines already on their date.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

// ImportResult counts what an import created.
type ImportResult struct {
	Routines  int `json:"routines"`
	Exercises int `json:"exercises"`
	Photos    int `json:"photos"`
}

// Import writes every routine, exercise and photo of snap. The snapshot
// is validated up front; after that the first failing write stops the
// import and the partial result is returned with the error.
func (s *Syncer) Import(ctx context.Context, snap *models.Snapshot) (*ImportResult, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}

	res := &ImportResult{}
	for _, sr := range snap.Routines {
		existing, err := s.Routines(ctx, sr.Date)
		if err != nil {
			return res, fmt.Errorf("import: %w", err)
		}
		r, err := s.CreateRoutine(ctx, models.RoutineInput{
			Date:  sr.Date,
			Name:  sr.Name,
			Order: models.NextRoutineOrder(existing),
		})
		if err != nil {
			return res, fmt.Errorf("import routine %q: %w", sr.Name, err)
		}
		res.Routines++

		for _, se := range sr.Exercises {
			e, err := s.CreateExercise(ctx, snapshotExercise(se, r.ID))
			if err != nil {
				return res, fmt.Errorf("import exercise %q: %w", se.Name, err)
			}
			res.Exercises++

			for _, sp := range se.Photos {
				data, err := base64.StdEncoding.DecodeString(sp.Base64)
				if err != nil {
					return res, recordstore.Invalid(fmt.Errorf("decode photo %d: %w", sp.Timestamp, err))
				}
				if _, err := s.UploadPhoto(ctx, models.PhotoInput{ExerciseID: e.ID, Data: data, Timestamp: sp.Timestamp}); err != nil {
					return res, fmt.Errorf("import photo %d: %w", sp.Timestamp, err)
				}
				res.Photos++
			}
		}
	}
	s.log.Info("snapshot imported", "routines", res.Routines, "exercises", res.Exercises, "photos", res.Photos)
	return res, nil
}

func snapshotExercise(se models.SnapshotExercise, routineID string) models.ExerciseInput {
	in := models.ExerciseInput{
		RoutineID:     routineID,
		Name:          se.Name,
		Repetitions:   &se.Repetitions,
		Weight:        &se.Weight,
		Sets:          &se.Sets,
		SetsCompleted: &se.SetsCompleted,
		Distance:      &se.Distance,
		Order:         models.PositiveOrder(se.Order),
	}
	if se.Time != "" {
		in.Time = &se.Time
	}
	return in
}
