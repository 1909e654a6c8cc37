// ABOUTME: Routine model: a named, ordered group of exercises on one calendar day.
// ABOUTME: Includes the create input, the rename patch and ordering helpers.
package models

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Collection names used in cache keys and store record prefixes.
const (
	CollectionRoutines  = "routines"
	CollectionExercises = "exercises"
	CollectionPhotos    = "photos"
)

// DateLayout is the calendar-day format carried by every routine.
const DateLayout = "2006-01-02"

var dateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Routine is a named workout block scheduled on a date.
type Routine struct {
	ID    string `json:"id" yaml:"id"`
	Date  string `json:"date" yaml:"date"`
	Name  string `json:"name" yaml:"name"`
	Order int    `json:"order" yaml:"order"`
}

// RoutineInput is the payload for creating a routine. ID is optional;
// the store mints one when it is empty.
type RoutineInput struct {
	ID    string `json:"id,omitempty"`
	Date  string `json:"date"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Validate reports the first invalid field of a create payload.
func (in RoutineInput) Validate() error {
	if err := ValidateDate(in.Date); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if in.Order < 1 {
		return &ValidationError{Field: "order", Reason: "must be positive"}
	}
	return nil
}

// Routine builds the stored representation using the given ID.
func (in RoutineInput) Routine(id string) Routine {
	return Routine{ID: id, Date: in.Date, Name: in.Name, Order: in.Order}
}

// RoutinePatch is a partial update. Only the name can change; a nil
// Name leaves the routine untouched.
type RoutinePatch struct {
	Name *string `json:"name,omitempty"`
}

// UnmarshalJSON rejects an explicit null for name, which would otherwise
// be indistinguishable from an absent field.
func (p *RoutinePatch) UnmarshalJSON(data []byte) error {
	if err := rejectNulls(data, "name"); err != nil {
		return err
	}
	type plain RoutinePatch
	return json.Unmarshal(data, (*plain)(p))
}

// IsEmpty reports whether the patch changes nothing.
func (p RoutinePatch) IsEmpty() bool { return p.Name == nil }

// Apply merges the patch into r after validating it.
func (p RoutinePatch) Apply(r *Routine) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		r.Name = *p.Name
	}
	return nil
}

// ValidateDate checks the YYYY-MM-DD shape and that the day exists.
func ValidateDate(date string) error {
	if !dateRE.MatchString(date) {
		return &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return &ValidationError{Field: "date", Reason: "is not a calendar day"}
	}
	return nil
}

// Today returns the local calendar day in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// SortRoutines orders routines by Order; ties keep their incoming order.
func SortRoutines(rs []Routine) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Order < rs[j].Order })
}

// NextRoutineOrder returns one past the highest order in rs, or 1 when rs is empty.
func NextRoutineOrder(rs []Routine) int {
	max := 0
	for _, r := range rs {
		if r.Order > max {
			max = r.Order
		}
	}
	return max + 1
}
