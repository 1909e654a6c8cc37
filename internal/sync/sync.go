// ABOUTME: Syncer coordinates cached reads and store mutations for one user.
// ABOUTME: Mutations invalidate the cache keys they affect only after the store confirms them.
package sync

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/querycache"
	"github.com/harperreed/pump/internal/recordstore"
)

// Syncer is the mutation coordinator between callers, the query cache
// and the record store.
type Syncer struct {
	store  recordstore.Client
	cache  *querycache.Cache
	userID string
	log    *logger.Logger
}

// NewSyncer creates a Syncer acting as userID.
func NewSyncer(store recordstore.Client, cache *querycache.Cache, userID string, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Nop()
	}
	return &Syncer{store: store, cache: cache, userID: userID, log: log.With("user_id", userID)}
}

// UserID returns the user the Syncer acts as.
func (s *Syncer) UserID() string { return s.userID }

// Cache returns the underlying query cache.
func (s *Syncer) Cache() *querycache.Cache { return s.cache }

func (s *Syncer) requireUser() error {
	if s.userID == "" {
		return recordstore.Unauthenticated()
	}
	return nil
}

// Routines returns the routines on date, served from cache when present.
func (s *Syncer) Routines(ctx context.Context, date string) ([]models.Routine, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := models.ValidateDate(date); err != nil {
		return nil, recordstore.Invalid(err)
	}
	rs, err := querycache.Get(ctx, s.cache, RoutinesKey(s.userID, date), s.fetchRoutines(date))
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	return slices.Clone(rs), nil
}

// Exercises returns a routine's exercises, served from cache when present.
func (s *Syncer) Exercises(ctx context.Context, routineID string) ([]models.Exercise, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if routineID == "" {
		return nil, recordstore.Invalid(&models.ValidationError{Field: "routineId", Reason: "is required"})
	}
	es, err := querycache.Get(ctx, s.cache, ExercisesKey(s.userID, routineID), s.fetchExercises(routineID))
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return slices.Clone(es), nil
}

// Photos returns an exercise's photos newest first, served from cache when present.
func (s *Syncer) Photos(ctx context.Context, exerciseID string) ([]models.Photo, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if exerciseID == "" {
		return nil, recordstore.Invalid(&models.ValidationError{Field: "exerciseId", Reason: "is required"})
	}
	ps, err := querycache.Get(ctx, s.cache, PhotosKey(s.userID, exerciseID), s.fetchPhotos(exerciseID))
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return slices.Clone(ps), nil
}

// RevalidateRoutines refreshes the routines of date in the background.
func (s *Syncer) RevalidateRoutines(ctx context.Context, date string) bool {
	if s.userID == "" || models.ValidateDate(date) != nil {
		return false
	}
	fetch := s.fetchRoutines(date)
	return s.cache.Revalidate(ctx, RoutinesKey(s.userID, date), func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
}

func (s *Syncer) fetchRoutines(date string) func(context.Context) ([]models.Routine, error) {
	return func(ctx context.Context) ([]models.Routine, error) {
		rs, err := s.store.ListRoutines(ctx, s.userID, date)
		if err != nil {
			return nil, err
		}
		models.SortRoutines(rs)
		return rs, nil
	}
}

func (s *Syncer) fetchExercises(routineID string) func(context.Context) ([]models.Exercise, error) {
	return func(ctx context.Context) ([]models.Exercise, error) {
		es, err := s.store.ListExercises(ctx, s.userID, routineID)
		if err != nil {
			return nil, err
		}
		models.SortExercises(es)
		return es, nil
	}
}

func (s *Syncer) fetchPhotos(exerciseID string) func(context.Context) ([]models.Photo, error) {
	return func(ctx context.Context) ([]models.Photo, error) {
		ps, err := s.store.ListPhotos(ctx, s.userID, exerciseID)
		if err != nil {
			return nil, err
		}
		models.SortPhotos(ps)
		return ps, nil
	}
}

// DayRoutine is a routine with its exercises loaded.
type DayRoutine struct {
	models.Routine
	Exercises []models.Exercise `json:"exercises"`
}

// Day loads the routines of date and then every routine's exercises
// concurrently, all through the cache.
func (s *Syncer) Day(ctx context.Context, date string) ([]DayRoutine, error) {
	routines, err := s.Routines(ctx, date)
	if err != nil {
		return nil, err
	}

	out := make([]DayRoutine, len(routines))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range routines {
		out[i].Routine = r
		g.Go(func() error {
			es, err := s.Exercises(gctx, r.ID)
			if err != nil {
				return err
			}
			out[i].Exercises = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load day %s: %w", date, err)
	}
	return out, nil
}

// CreateRoutine creates a routine and invalidates its date's routines key.
func (s *Syncer) CreateRoutine(ctx context.Context, in models.RoutineInput) (*models.Routine, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}
	r, err := s.store.CreateRoutine(ctx, s.userID, in)
	if err != nil {
		return nil, fmt.Errorf("create routine: %w", err)
	}
	s.cache.Invalidate(RoutinesKey(s.userID, r.Date))
	return r, nil
}

// AddRoutine appends a routine to date. An empty name becomes "Routine N".
func (s *Syncer) AddRoutine(ctx context.Context, date, name string) (*models.Routine, error) {
	existing, err := s.Routines(ctx, date)
	if err != nil {
		return nil, err
	}
	order := len(existing) + 1
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Routine %d", order)
	}
	return s.CreateRoutine(ctx, models.RoutineInput{Date: date, Name: name, Order: order})
}

// RenameRoutine renames a routine listed under date.
func (s *Syncer) RenameRoutine(ctx context.Context, routineID, date, name string) (*models.Routine, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := models.ValidateDate(date); err != nil {
		return nil, recordstore.Invalid(err)
	}
	if strings.TrimSpace(name) == "" {
		return nil, recordstore.Invalid(&models.ValidationError{Field: "name", Reason: "must not be empty"})
	}
	r, err := s.store.UpdateRoutine(ctx, s.userID, routineID, models.RoutinePatch{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("rename routine: %w", err)
	}
	s.cache.Invalidate(RoutinesKey(s.userID, date))
	if r.Date != date {
		s.cache.Invalidate(RoutinesKey(s.userID, r.Date))
	}
	return r, nil
}

// DeleteRoutine deletes a routine listed under date together with its
// exercises and photos, then invalidates across all three collections.
// It returns the number of exercises the store removed.
func (s *Syncer) DeleteRoutine(ctx context.Context, routineID, date string) (int, error) {
	if err := s.requireUser(); err != nil {
		return 0, err
	}
	if err := models.ValidateDate(date); err != nil {
		return 0, recordstore.Invalid(err)
	}

	// Children have to be enumerated before the store forgets them.
	exerciseIDs, known := s.childExercises(ctx, routineID)

	n, err := s.store.DeleteRoutine(ctx, s.userID, routineID)
	if err != nil {
		return 0, fmt.Errorf("delete routine: %w", err)
	}

	s.cache.Invalidate(RoutinesKey(s.userID, date))
	s.cache.InvalidateWhere(userCollection(s.userID, models.CollectionExercises))
	if known {
		s.cache.InvalidateWhere(querycache.And(
			userCollection(s.userID, models.CollectionPhotos),
			querycache.WithParam(models.CollectionPhotos, "exerciseId", exerciseIDs...),
		))
	} else {
		s.log.Warn("could not enumerate exercises of deleted routine, dropping all cached photos",
			"routine_id", routineID)
		s.cache.InvalidateWhere(userCollection(s.userID, models.CollectionPhotos))
	}
	return n, nil
}

// childExercises lists the routine's exercises from the store. IDs from a
// cached list are merged in so nothing the cache still mentions is missed.
func (s *Syncer) childExercises(ctx context.Context, routineID string) ([]string, bool) {
	es, err := s.store.ListExercises(ctx, s.userID, routineID)
	if err != nil {
		s.log.Warn("list exercises before routine delete failed", "routine_id", routineID, "error", err)
		return nil, false
	}
	seen := make(map[string]bool, len(es))
	ids := make([]string, 0, len(es))
	for _, e := range es {
		seen[e.ID] = true
		ids = append(ids, e.ID)
	}
	if cached, ok := querycache.PeekAs[[]models.Exercise](s.cache, ExercisesKey(s.userID, routineID)); ok {
		for _, e := range cached {
			if !seen[e.ID] {
				seen[e.ID] = true
				ids = append(ids, e.ID)
			}
		}
	}
	return ids, true
}
