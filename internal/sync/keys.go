// ABOUTME: Cache keys derived from the queries the Syncer issues.
// ABOUTME: Every key carries the user ID so users never share cached results.
package sync

import (
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/querycache"
)

const paramUser = "userId"

// RoutinesKey is the cache key for a user's routines on date.
func RoutinesKey(userID, date string) querycache.Key {
	return querycache.NewKey(models.CollectionRoutines, map[string]string{"date": date, paramUser: userID})
}

// ExercisesKey is the cache key for a routine's exercises.
func ExercisesKey(userID, routineID string) querycache.Key {
	return querycache.NewKey(models.CollectionExercises, map[string]string{"routineId": routineID, paramUser: userID})
}

// PhotosKey is the cache key for an exercise's photos.
func PhotosKey(userID, exerciseID string) querycache.Key {
	return querycache.NewKey(models.CollectionPhotos, map[string]string{"exerciseId": exerciseID, paramUser: userID})
}

func userCollection(userID, collection string) querycache.Predicate {
	return querycache.And(querycache.InCollection(collection), querycache.WithParam(collection, paramUser, userID))
}
