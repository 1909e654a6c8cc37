// ABOUTME: Validation error type shared by all model payloads.
// ABOUTME: Also holds the explicit-null check used by patch decoding.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ValidationError names the offending field of a payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func rejectNulls(data []byte, fields ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range fields {
		if v, ok := raw[f]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return &ValidationError{Field: f, Reason: "must not be null"}
		}
	}
	return nil
}
