// ABOUTME: Photo mutations through the Syncer.
// ABOUTME: Deletes outside the user's namespace are refused without contacting the store.
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

// UploadPhoto stores image bytes for an exercise.
func (s *Syncer) UploadPhoto(ctx context.Context, in models.PhotoInput) (*models.Photo, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, recordstore.Invalid(err)
	}
	p, err := s.store.UploadPhoto(ctx, s.userID, in)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	s.cache.Invalidate(PhotosKey(s.userID, in.ExerciseID))
	return p, nil
}

// DeletePhoto deletes a photo by its identity path.
func (s *Syncer) DeletePhoto(ctx context.Context, photoID string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if !models.OwnsPhoto(s.userID, photoID) {
		return recordstore.Forbidden("photo %s does not belong to the current user", photoID)
	}
	_, exerciseID, _, err := models.ParsePhotoPath(photoID)
	if err != nil {
		return recordstore.Invalid(err)
	}
	if err := s.store.DeletePhoto(ctx, s.userID, photoID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	s.cache.Invalidate(PhotosKey(s.userID, exerciseID))
	return nil
}
