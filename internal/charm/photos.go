// ABOUTME: Photo operations for the KV record service.
// ABOUTME: Photos are keyed by their user/exercise/timestamp path and hold raw JPEG bytes.
package charm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

type photoRecord struct {
	ID          string `json:"id"`
	ExerciseID  string `json:"exerciseId"`
	Timestamp   int64  `json:"timestamp"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (r photoRecord) photo() models.Photo {
	return models.Photo{ID: r.ID, ExerciseID: r.ExerciseID, Timestamp: r.Timestamp}
}

// ListPhotos returns an exercise's photos, newest first.
func (c *Client) ListPhotos(ctx context.Context, userID, exerciseID string) ([]models.Photo, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if exerciseID == "" {
		return nil, recordstore.Errorf(http.StatusBadRequest, "exerciseId is required")
	}

	_, records, err := scan[photoRecord](c, photoKey(models.PhotoPrefix(userID, exerciseID)))
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]models.Photo, 0, len(records))
	for _, r := range records {
		out = append(out, r.photo())
	}
	models.SortPhotos(out)
	return out, nil
}

// UploadPhoto stores image bytes under the owning exercise. A zero
// timestamp is replaced with the current time in milliseconds.
func (c *Client) UploadPhoto(ctx context.Context, userID string, in models.PhotoInput) (*models.Photo, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, found, err := get[exerciseRecord](c, exerciseKey(userID, in.ExerciseID)); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	} else if !found {
		return nil, recordstore.NotFound("exercise", in.ExerciseID)
	}

	ts := in.Timestamp
	if ts == 0 {
		ts = c.now().UnixMilli()
	}
	path := models.PhotoPath(userID, in.ExerciseID, ts)
	rec := photoRecord{
		ID:          path,
		ExerciseID:  in.ExerciseID,
		Timestamp:   ts,
		ContentType: models.PhotoContentType,
		Data:        in.Data,
	}
	if err := c.set(photoKey(path), rec); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	p := rec.photo()
	return &p, nil
}

// DeletePhoto removes a photo. Paths outside the user's namespace are
// rejected before any lookup.
func (c *Client) DeletePhoto(ctx context.Context, userID, photoID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if !models.OwnsPhoto(userID, photoID) {
		return recordstore.Forbidden("photo %s does not belong to the current user", photoID)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	key := photoKey(photoID)
	if _, found, err := get[photoRecord](c, key); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	} else if !found {
		return recordstore.NotFound("photo", photoID)
	}
	if err := c.deleteKeys(key); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// PhotoData returns the stored bytes of a photo.
func (c *Client) PhotoData(ctx context.Context, userID, photoID string) ([]byte, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !models.OwnsPhoto(userID, photoID) {
		return nil, recordstore.Forbidden("photo %s does not belong to the current user", photoID)
	}
	rec, found, err := get[photoRecord](c, photoKey(photoID))
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	if !found {
		return nil, recordstore.NotFound("photo", photoID)
	}
	return rec.Data, nil
}

var _ recordstore.Client = (*Client)(nil)
