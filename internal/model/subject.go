package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultSubjectColor is used when a subject has no color set.
const DefaultSubjectColor = "#007AFF"

// ErrSubjectNameRequired is returned when a subject has a blank name.
var ErrSubjectNameRequired = errors.New("subject name is required")

// Subject is a user-defined course grouping evaluations.
type Subject struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DisplayColor returns the subject color or the default.
func (s Subject) DisplayColor() string {
	if s.Color == "" {
		return DefaultSubjectColor
	}
	return s.Color
}

// Validate checks that the subject can be created.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrSubjectNameRequired
	}
	return nil
}
