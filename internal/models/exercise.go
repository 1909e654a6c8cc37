// ABOUTME: Exercise model with its metrics, create defaults and sparse patches.
// ABOUTME: Exercises belong to exactly one routine.
package models

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// DefaultTime is the elapsed time given to exercises created without one.
const DefaultTime = "00:00"

var timeRE = regexp.MustCompile(`^\d{1,3}:[0-5]\d(:[0-5]\d)?$`)

// Exercise is a single movement within a routine.
type Exercise struct {
	ID            string  `json:"id" yaml:"id"`
	RoutineID     string  `json:"routineId" yaml:"routineId"`
	Name          string  `json:"name" yaml:"name"`
	Repetitions   int     `json:"repetitions" yaml:"repetitions"`
	Weight        float64 `json:"weight" yaml:"weight"`
	Sets          int     `json:"sets" yaml:"sets"`
	SetsCompleted int     `json:"setsCompleted" yaml:"setsCompleted"`
	Time          string  `json:"time" yaml:"time"`
	Distance      float64 `json:"distance" yaml:"distance"`
	Order         int     `json:"order" yaml:"order"`
}

// ExerciseInput is the create payload. Unset metrics default to zero and
// an unset time defaults to DefaultTime.
type ExerciseInput struct {
	ID            string   `json:"id,omitempty"`
	RoutineID     string   `json:"routineId"`
	Name          string   `json:"name"`
	Repetitions   *int     `json:"repetitions,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	Sets          *int     `json:"sets,omitempty"`
	SetsCompleted *int     `json:"setsCompleted,omitempty"`
	Time          *string  `json:"time,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	Order         int      `json:"order"`
}

// Exercise builds the stored representation with defaults applied.
func (in ExerciseInput) Exercise(id string) Exercise {
	e := Exercise{
		ID:        id,
		RoutineID: in.RoutineID,
		Name:      in.Name,
		Time:      DefaultTime,
		Order:     in.Order,
	}
	if in.Repetitions != nil {
		e.Repetitions = *in.Repetitions
	}
	if in.Weight != nil {
		e.Weight = *in.Weight
	}
	if in.Sets != nil {
		e.Sets = *in.Sets
	}
	if in.SetsCompleted != nil {
		e.SetsCompleted = *in.SetsCompleted
	}
	if in.Time != nil && *in.Time != "" {
		e.Time = *in.Time
	}
	if in.Distance != nil {
		e.Distance = *in.Distance
	}
	return e
}

// Validate checks the create payload, including the defaulted values.
func (in ExerciseInput) Validate() error {
	if in.RoutineID == "" {
		return &ValidationError{Field: "routineId", Reason: "is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if in.Order < 1 {
		return &ValidationError{Field: "order", Reason: "must be positive"}
	}
	e := in.Exercise(in.ID)
	return e.Validate()
}

// Validate checks value ranges on a complete exercise. SetsCompleted may
// exceed Sets.
func (e Exercise) Validate() error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case e.Repetitions < 0:
		return &ValidationError{Field: "repetitions", Reason: "must not be negative"}
	case e.Weight < 0:
		return &ValidationError{Field: "weight", Reason: "must not be negative"}
	case e.Sets < 0:
		return &ValidationError{Field: "sets", Reason: "must not be negative"}
	case e.SetsCompleted < 0:
		return &ValidationError{Field: "setsCompleted", Reason: "must not be negative"}
	case e.Distance < 0:
		return &ValidationError{Field: "distance", Reason: "must not be negative"}
	case e.Order < 0:
		return &ValidationError{Field: "order", Reason: "must not be negative"}
	}
	return ValidateTime(e.Time)
}

// ValidateTime checks an elapsed time of the form mm:ss or h:mm:ss.
func ValidateTime(t string) error {
	if !timeRE.MatchString(t) {
		return &ValidationError{Field: "time", Reason: "must be mm:ss"}
	}
	return nil
}

// ExercisePatch is a sparse update. Nil fields are left unchanged.
type ExercisePatch struct {
	Name          *string  `json:"name,omitempty"`
	Repetitions   *int     `json:"repetitions,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	Sets          *int     `json:"sets,omitempty"`
	SetsCompleted *int     `json:"setsCompleted,omitempty"`
	Time          *string  `json:"time,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	Order         *int     `json:"order,omitempty"`
}

// UnmarshalJSON rejects explicit nulls; a field is either absent or set.
func (p *ExercisePatch) UnmarshalJSON(data []byte) error {
	if err := rejectNulls(data, "name", "repetitions", "weight", "sets",
		"setsCompleted", "time", "distance", "order"); err != nil {
		return err
	}
	type plain ExercisePatch
	return json.Unmarshal(data, (*plain)(p))
}

// IsEmpty reports whether the patch changes nothing.
func (p ExercisePatch) IsEmpty() bool {
	return p.Name == nil && p.Repetitions == nil && p.Weight == nil && p.Sets == nil &&
		p.SetsCompleted == nil && p.Time == nil && p.Distance == nil && p.Order == nil
}

// Validate range-checks the fields the patch sets, without needing the
// exercise it applies to.
func (p ExercisePatch) Validate() error {
	switch {
	case p.Name != nil && strings.TrimSpace(*p.Name) == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case p.Repetitions != nil && *p.Repetitions < 0:
		return &ValidationError{Field: "repetitions", Reason: "must not be negative"}
	case p.Weight != nil && *p.Weight < 0:
		return &ValidationError{Field: "weight", Reason: "must not be negative"}
	case p.Sets != nil && *p.Sets < 0:
		return &ValidationError{Field: "sets", Reason: "must not be negative"}
	case p.SetsCompleted != nil && *p.SetsCompleted < 0:
		return &ValidationError{Field: "setsCompleted", Reason: "must not be negative"}
	case p.Distance != nil && *p.Distance < 0:
		return &ValidationError{Field: "distance", Reason: "must not be negative"}
	case p.Order != nil && *p.Order < 1:
		return &ValidationError{Field: "order", Reason: "must be positive"}
	case p.Time != nil:
		return ValidateTime(*p.Time)
	}
	return nil
}

// Apply merges the patch into e and validates the result. e is left
// unmodified when the merged exercise is invalid.
func (p ExercisePatch) Apply(e *Exercise) error {
	merged := *e
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Repetitions != nil {
		merged.Repetitions = *p.Repetitions
	}
	if p.Weight != nil {
		merged.Weight = *p.Weight
	}
	if p.Sets != nil {
		merged.Sets = *p.Sets
	}
	if p.SetsCompleted != nil {
		merged.SetsCompleted = *p.SetsCompleted
	}
	if p.Time != nil {
		merged.Time = *p.Time
	}
	if p.Distance != nil {
		merged.Distance = *p.Distance
	}
	if p.Order != nil {
		merged.Order = *p.Order
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	*e = merged
	return nil
}

// PositiveOrder maps a missing or non-positive imported order to 1.
func PositiveOrder(order int) int {
	if order < 1 {
		return 1
	}
	return order
}

// SortExercises orders exercises by Order; ties keep their incoming order.
func SortExercises(es []Exercise) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].Order < es[j].Order })
}

