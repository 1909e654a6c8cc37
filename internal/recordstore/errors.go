// ABOUTME: Typed record store error carrying an HTTP-like status code.
// ABOUTME: Status 0 means the request never produced a response.
package recordstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/harperreed/pump/internal/models"
)

// StatusNetwork marks transport failures that produced no response.
const StatusNetwork = 0

// Error is returned by every Client operation that fails.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == StatusNetwork {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Errorf builds an *Error with a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing mutation target.
func NotFound(what, id string) *Error {
	return Errorf(http.StatusNotFound, "%s not found: %s", what, id)
}

// Unauthenticated reports a missing user identity.
func Unauthenticated() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "not authenticated"}
}

// Forbidden reports an attempt to touch another user's records.
func Forbidden(format string, args ...any) *Error {
	return Errorf(http.StatusForbidden, format, args...)
}

// Invalid converts a validation failure into a 400 error. Errors that
// already carry a status pass through unchanged.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Status: http.StatusBadRequest, Message: err.Error()}
}

// StatusOf extracts the status from err, or -1 when err is not an *Error.
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	return -1
}

func IsNotFound(err error) bool        { return StatusOf(err) == http.StatusNotFound }
func IsUnauthenticated(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool       { return StatusOf(err) == http.StatusForbidden }
func IsNetwork(err error) bool         { return StatusOf(err) == StatusNetwork }

// IsValidation matches both 400 store errors and unconverted model validation errors.
func IsValidation(err error) bool {
	return StatusOf(err) == http.StatusBadRequest || models.IsValidation(err)
}
