// ABOUTME: One-shot migration of legacy local data into the record store.
// ABOUTME: Mints new IDs, remaps references and tolerates dangling records and bad photos.

package migrate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

// Result mirrors the migration response: routine and exercise counts are
// the number of input records processed, photos the number uploaded.
type Result struct {
	Success   bool     `json:"success"`
	Routines  int      `json:"routines"`
	Exercises int      `json:"exercises"`
	Photos    int      `json:"photos"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Migrator copies a legacy payload into the store as one user. Running it
// twice on the same payload creates duplicates.
type Migrator struct {
	store  recordstore.Client
	userID string
	newID  func() string
	log    *logger.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithIDFunc replaces the ID generator.
func WithIDFunc(fn func() string) Option {
	return func(m *Migrator) { m.newID = fn }
}

// WithLogger sets the logger for skipped and failed records.
func WithLogger(l *logger.Logger) Option {
	return func(m *Migrator) { m.log = l }
}

// New creates a Migrator writing to store as userID.
func New(store recordstore.Client, userID string, opts ...Option) *Migrator {
	m := &Migrator{
		store:  store,
		userID: userID,
		newID:  uuid.NewString,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DecodePayload reads a JSON legacy payload.
func DecodePayload(r io.Reader) (*models.LegacyPayload, error) {
	var p models.LegacyPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode legacy payload: %w", err)
	}
	return &p, nil
}

// Run migrates routines, then exercises, then photos, each in input order.
// A failed routine or exercise create aborts the run and returns the
// partial Result with the error; dangling references and failed photos are
// skipped with a warning.
func (m *Migrator) Run(ctx context.Context, p *models.LegacyPayload) (*Result, error) {
	if m.userID == "" {
		return nil, recordstore.Unauthenticated()
	}
	if p == nil {
		p = &models.LegacyPayload{}
	}

	res := &Result{}
	routineIDs := make(map[int64]string, len(p.Routines))
	exerciseIDs := make(map[int64]string, len(p.Exercises))

	for _, lr := range p.Routines {
		id := m.newID()
		routineIDs[lr.ID] = id
		if _, err := m.store.CreateRoutine(ctx, m.userID, models.RoutineInput{
			ID:    id,
			Date:  lr.Date,
			Name:  lr.Name,
			Order: models.PositiveOrder(lr.Order),
		}); err != nil {
			return res, fmt.Errorf("migrate routine %d: %w", lr.ID, err)
		}
		res.Routines++
	}

	for _, le := range p.Exercises {
		routineID, ok := routineIDs[le.RoutineID]
		if !ok {
			res.warn(m.log, fmt.Sprintf("exercise %d references unknown routine %d, skipped", le.ID, le.RoutineID),
				"legacy_exercise", le.ID, "legacy_routine", le.RoutineID)
			res.Exercises++
			continue
		}
		id := m.newID()
		if _, err := m.store.CreateExercise(ctx, m.userID, legacyExercise(le, id, routineID)); err != nil {
			return res, fmt.Errorf("migrate exercise %d: %w", le.ID, err)
		}
		exerciseIDs[le.ID] = id
		res.Exercises++
	}

	for _, lp := range p.Photos {
		exerciseID, ok := exerciseIDs[lp.ExerciseID]
		if !ok {
			res.warn(m.log, fmt.Sprintf("photo %d references unknown exercise %d, skipped", lp.ID, lp.ExerciseID),
				"legacy_photo", lp.ID, "legacy_exercise", lp.ExerciseID)
			continue
		}
		if err := m.migratePhoto(ctx, lp, exerciseID); err != nil {
			m.log.Error("photo migration failed", "legacy_photo", lp.ID, "exercise_id", exerciseID, "error", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("photo %d: %v", lp.ID, err))
			continue
		}
		res.Photos++
	}

	res.Success = true
	m.log.Info("legacy migration finished",
		"user_id", m.userID, "routines", res.Routines, "exercises", res.Exercises,
		"photos", res.Photos, "photos_in", len(p.Photos))
	return res, nil
}

func (m *Migrator) migratePhoto(ctx context.Context, lp models.LegacyPhoto, exerciseID string) error {
	// The store reads a zero timestamp as "now", which would lose the capture time.
	if lp.Timestamp <= 0 {
		return fmt.Errorf("invalid timestamp %d", lp.Timestamp)
	}
	data, err := base64.StdEncoding.DecodeString(lp.Blob)
	if err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	_, err = m.store.UploadPhoto(ctx, m.userID, models.PhotoInput{
		ExerciseID: exerciseID,
		Data:       data,
		Timestamp:  lp.Timestamp,
	})
	return err
}

func (r *Result) warn(log *logger.Logger, msg string, kv ...any) {
	r.Warnings = append(r.Warnings, msg)
	log.Warn("legacy record skipped", append([]any{"reason", msg}, kv...)...)
}

func legacyExercise(le models.LegacyExercise, id, routineID string) models.ExerciseInput {
	in := models.ExerciseInput{
		ID:            id,
		RoutineID:     routineID,
		Name:          le.Name,
		Repetitions:   &le.Repetitions,
		Weight:        &le.Weight,
		Sets:          &le.Sets,
		SetsCompleted: &le.SetsCompleted,
		Distance:      &le.Distance,
		Order:         models.PositiveOrder(le.Order),
	}
	if le.Time != "" {
		in.Time = &le.Time
	}
	return in
}
