package model

import (
	"errors"
	"strings"
	"time"
)

// EvaluationType tags the kind of graded item.
type EvaluationType string

// Evaluation type constants as stored by the backend.
const (
	EvalTypeTest         EvaluationType = "prueba"
	EvalTypeAssignment   EvaluationType = "trabajo"
	EvalTypeHomework     EvaluationType = "tarea"
	EvalTypePresentation EvaluationType = "exposicion"
	EvalTypeProject      EvaluationType = "proyecto"
	EvalTypeQuiz         EvaluationType = "quiz"
)

// EvaluationTypes lists every known type in display order.
var EvaluationTypes = []EvaluationType{
	EvalTypeTest,
	EvalTypeAssignment,
	EvalTypeHomework,
	EvalTypePresentation,
	EvalTypeProject,
	EvalTypeQuiz,
}

// Label returns the human-readable name of the type. Unknown types fall
// back to the first known label.
func (t EvaluationType) Label() string {
	switch t {
	case EvalTypeTest:
		return "Prueba"
	case EvalTypeAssignment:
		return "Trabajo"
	case EvalTypeHomework:
		return "Tarea"
	case EvalTypePresentation:
		return "Exposición"
	case EvalTypeProject:
		return "Proyecto"
	case EvalTypeQuiz:
		return "Quiz"
	default:
		return "Prueba"
	}
}

// Grade bounds on the 1.0-7.0 scale.
const (
	MinGrade  = 1.0
	MaxGrade  = 7.0
	PassGrade = 4.0
)

// Validation errors returned by the Validate helpers.
var (
	ErrTitleRequired   = errors.New("evaluation title is required")
	ErrDueDateRequired = errors.New("due date is required")
	ErrDueDateInPast   = errors.New("due date cannot be in the past")
	ErrWeightRange     = errors.New("weight must be between 0 and 100")
	ErrGradeRange      = errors.New("grade must be between 1.0 and 7.0")
	ErrSubjectRequired = errors.New("subject is required")
)

// Evaluation is a gradable, dated item (exam, assignment, etc.) belonging
// to a subject. Rows are owned by the remote backend.
type Evaluation struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	SubjectID string         `json:"subject_id"`
	Title     string         `json:"title"`
	Type      EvaluationType `json:"type"`
	DueDate   *time.Time     `json:"due_date"`
	Weight    *float64       `json:"weight"`
	Grade     *float64       `json:"grade"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// IsOverdue reports whether the evaluation is pending and past its due date.
func (e Evaluation) IsOverdue(now time.Time) bool {
	return e.DueDate != nil && e.DueDate.Before(now) && !e.Completed
}

// Validate checks the fields a new evaluation must carry before it is sent
// upstream. now is the reference instant for the past-due check.
func (e Evaluation) Validate(now time.Time) error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if e.SubjectID == "" {
		return ErrSubjectRequired
	}
	if e.DueDate == nil || e.DueDate.IsZero() {
		return ErrDueDateRequired
	}
	if e.DueDate.Before(now) {
		return ErrDueDateInPast
	}
	if e.Weight != nil && (*e.Weight < 0 || *e.Weight > 100) {
		return ErrWeightRange
	}
	return nil
}

// ValidateGrade accepts nil (grade cleared) or a value on the 1-7 scale.
func ValidateGrade(grade *float64) error {
	if grade == nil {
		return nil
	}
	if *grade < MinGrade || *grade > MaxGrade {
		return ErrGradeRange
	}
	return nil
}
