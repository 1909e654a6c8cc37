// ABOUTME: Photo model and the user/exercise/timestamp path scheme that identifies photos.
// ABOUTME: Ownership of a photo is decided by the user prefix of its path.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PhotoContentType is the only content type photos are stored with.
const PhotoContentType = "image/jpeg"

// Photo is an image attached to an exercise. ID is the storage path.
type Photo struct {
	ID         string `json:"id" yaml:"id"`
	ExerciseID string `json:"exerciseId" yaml:"exerciseId"`
	Timestamp  int64  `json:"timestamp" yaml:"timestamp"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Time returns the capture time.
func (p Photo) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// PhotoInput is an upload request. A zero Timestamp means now.
type PhotoInput struct {
	ExerciseID string
	Data       []byte
	Timestamp  int64
}

// Validate checks the upload request.
func (in PhotoInput) Validate() error {
	if in.ExerciseID == "" {
		return &ValidationError{Field: "exerciseId", Reason: "is required"}
	}
	if len(in.Data) == 0 {
		return &ValidationError{Field: "photo", Reason: "is empty"}
	}
	if in.Timestamp < 0 {
		return &ValidationError{Field: "timestamp", Reason: "must not be negative"}
	}
	return nil
}

// PhotoPath builds the identifier user/exercise/timestamp.jpg.
func PhotoPath(userID, exerciseID string, timestamp int64) string {
	return fmt.Sprintf("%s/%s/%d.jpg", userID, exerciseID, timestamp)
}

// PhotoPrefix is the path prefix shared by all photos of one exercise.
func PhotoPrefix(userID, exerciseID string) string {
	return userID + "/" + exerciseID + "/"
}

// ParsePhotoPath splits a photo identifier into its parts.
func ParsePhotoPath(path string) (userID, exerciseID string, timestamp int64, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", 0, &ValidationError{Field: "photoId", Reason: "must be user/exercise/timestamp.jpg"}
	}
	name := strings.TrimSuffix(parts[2], ".jpg")
	ts, perr := strconv.ParseInt(name, 10, 64)
	if perr != nil || name == parts[2] {
		return "", "", 0, &ValidationError{Field: "photoId", Reason: "must end in <timestamp>.jpg"}
	}
	return parts[0], parts[1], ts, nil
}

// OwnsPhoto reports whether path lives under userID's namespace.
func OwnsPhoto(userID, path string) bool {
	return userID != "" && strings.HasPrefix(path, userID+"/")
}

// SortPhotos orders photos newest first.
func SortPhotos(ps []Photo) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Timestamp > ps[j].Timestamp })
}
