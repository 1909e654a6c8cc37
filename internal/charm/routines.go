// ABOUTME: Routine operations for the KV record service.
// ABOUTME: Deleting a routine cascades to its exercises and their photos by hand.
package charm

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

type routineRecord struct {
	models.Routine
	UserID  string `json:"userId"`
	Created int64  `json:"created"`
}

// ListRoutines returns the user's routines on date ordered by Order.
func (c *Client) ListRoutines(ctx context.Context, userID, date string) ([]models.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := models.ValidateDate(date); err != nil {
		return nil, recordstore.Invalid(err)
	}

	records, err := c.userRoutines(userID)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}

	var matched []routineRecord
	for _, r := range records {
		if r.Date == date {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Order != matched[j].Order {
			return matched[i].Order < matched[j].Order
		}
		return matched[i].Created < matched[j].Created
	})

	out := make([]models.Routine, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.Routine)
	}
	return out, nil
}

// CreateRoutine stores a new routine, minting an ID when none is given.
func (c *Client) CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (*models.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	id := in.ID
	if id == "" {
		id = c.newID()
	} else if _, found, err := get[routineRecord](c, routineKey(userID, id)); err != nil {
		return nil, fmt.Errorf("create routine: %w", err)
	} else if found {
		return nil, recordstore.Errorf(http.StatusConflict, "routine already exists: %s", id)
	}

	rec := routineRecord{Routine: in.Routine(id), UserID: userID, Created: c.now().UnixNano()}
	if err := c.set(routineKey(userID, id), rec); err != nil {
		return nil, fmt.Errorf("create routine: %w", err)
	}
	r := rec.Routine
	return &r, nil
}

// UpdateRoutine renames a routine.
func (c *Client) UpdateRoutine(ctx context.Context, userID, routineID string, patch models.RoutinePatch) (*models.Routine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	rec, found, err := get[routineRecord](c, routineKey(userID, routineID))
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	if !found {
		return nil, recordstore.NotFound("routine", routineID)
	}
	if err := patch.Apply(&rec.Routine); err != nil {
		return nil, recordstore.Invalid(err)
	}
	if err := c.set(routineKey(userID, routineID), rec); err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	r := rec.Routine
	return &r, nil
}

// DeleteRoutine removes the routine's exercises, their photos and then
// the routine itself. It returns the number of exercises removed.
func (c *Client) DeleteRoutine(ctx context.Context, userID, routineID string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	key := routineKey(userID, routineID)
	if _, found, err := get[routineRecord](c, key); err != nil {
		return 0, fmt.Errorf("delete routine: %w", err)
	} else if !found {
		return 0, recordstore.NotFound("routine", routineID)
	}

	exercises, err := c.routineExercises(userID, routineID)
	if err != nil {
		return 0, fmt.Errorf("delete routine: %w", err)
	}

	exerciseKeys := make([]string, 0, len(exercises))
	var photoKeys []string
	for _, e := range exercises {
		exerciseKeys = append(exerciseKeys, exerciseKey(userID, e.ID))
		keys, _, err := scan[photoRecord](c, photoKey(models.PhotoPrefix(userID, e.ID)))
		if err != nil {
			return 0, fmt.Errorf("delete routine: %w", err)
		}
		photoKeys = append(photoKeys, keys...)
	}

	if err := c.deleteKeys(exerciseKeys...); err != nil {
		return 0, fmt.Errorf("delete routine exercises: %w", err)
	}
	if err := c.deleteKeys(photoKeys...); err != nil {
		return 0, fmt.Errorf("delete routine photos: %w", err)
	}
	if err := c.deleteKeys(key); err != nil {
		return 0, fmt.Errorf("delete routine: %w", err)
	}
	return len(exercises), nil
}

func (c *Client) userRoutines(userID string) ([]routineRecord, error) {
	_, records, err := scan[routineRecord](c, RoutinePrefix+userID+":")
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, r := range records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
