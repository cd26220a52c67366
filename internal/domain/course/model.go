package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrEmptyName = errors.New("course name cannot be empty")
	errEmptyID   = errors.New("course ID cannot be empty")
)

// Max length constants.
const (
	MaxNameLength        = 200
	MaxLevelLength       = 100
	MaxDescriptionLength = 2000
)

// Course is a martial-arts course that billing plans can grant access to.
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       string `json:"level,omitempty"`       // free-form label (e.g. Beginner, Advanced)
	Description string `json:"description,omitempty"` // optional, markdown
	IsActive    bool   `json:"isActive"`
}

// UnmarshalJSON decodes a Course, treating a missing or null isActive as active.
func (c *Course) UnmarshalJSON(b []byte) error {
	type alias Course
	a := alias{IsActive: true}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Course(a)
	return nil
}

// Validate checks if the Course has valid data.
// PRE: Course struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Course) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return fmt.Errorf("course name cannot exceed %d characters", MaxNameLength)
	}
	if len(c.Level) > MaxLevelLength {
		return fmt.Errorf("course level cannot exceed %d characters", MaxLevelLength)
	}
	if len(c.Description) > MaxDescriptionLength {
		return fmt.Errorf("course description cannot exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// FilterActive returns the courses that are not explicitly inactive, preserving order.
func FilterActive(courses []Course) []Course {
	out := make([]Course, 0, len(courses))
	for _, c := range courses {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns the course IDs in order.
func IDs(courses []Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}
