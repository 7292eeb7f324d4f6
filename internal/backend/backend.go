// Package backend talks to the hosted row store and auth service that own
// all subjects, evaluations and sessions.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/evaltracker/internal/model"
)

// Table names exposed by the backend.
const (
	TableEvaluations = "evaluations"
	TableSubjects    = "subjects"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// AuthError indicates that authentication has failed or expired.
// It is returned by the client when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// EvaluationFilter narrows ListEvaluations. Zero values mean "any".
type EvaluationFilter struct {
	UserID    string
	SubjectID string
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
	Limit     int
}

// Evaluations is the read side used by the reminder checker.
type Evaluations interface {
	// ListUpcomingEvaluations returns the user's pending evaluations whose
	// due date lies in [from, to], ascending by due date.
	ListUpcomingEvaluations(ctx context.Context, userID string, from, to time.Time) ([]model.Evaluation, error)

	// ListSubjectsByID returns the user's subjects restricted to ids.
	ListSubjectsByID(ctx context.Context, userID string, ids []string) ([]model.Subject, error)
}

// Backend is the full upstream surface used by the application.
type Backend interface {
	Evaluations

	ListSubjects(ctx context.Context, userID string) ([]model.Subject, error)
	GetSubject(ctx context.Context, userID, id string) (*model.Subject, error)
	CreateSubject(ctx context.Context, subject model.Subject) (*model.Subject, error)
	DeleteSubject(ctx context.Context, id string) error

	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error)
	CreateEvaluation(ctx context.Context, eval model.Evaluation) (*model.Evaluation, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
	SetGrade(ctx context.Context, id string, grade *float64) error
	DeleteEvaluation(ctx context.Context, id string) error
}

// Authenticator exchanges credentials for sessions.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
}
