package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/evaltracker/internal/model"
)

const restPrefix = "/rest/v1/"

var _ Backend = (*Client)(nil)

var returnRepresentation = map[string]string{"Prefer": "return=representation"}

// ListUpcomingEvaluations implements Evaluations.
func (c *Client) ListUpcomingEvaluations(
	ctx context.Context,
	userID string,
	from, to time.Time,
) ([]model.Evaluation, error) {
	q := NewQuery().
		Select("id", "title", "due_date", "subject_id", "type").
		Eq("user_id", userID).
		EqBool("completed", false).
		NotNull("due_date").
		Lte("due_date", to).
		Gte("due_date", from).
		OrderAsc("due_date")

	var evals []model.Evaluation
	if err := c.do(ctx, request{method: http.MethodGet, path: restPrefix + TableEvaluations, query: q}, &evals); err != nil {
		return nil, fmt.Errorf("listing upcoming evaluations: %w", err)
	}
	return evals, nil
}

// ListSubjectsByID implements Evaluations.
func (c *Client) ListSubjectsByID(ctx context.Context, userID string, ids []string) ([]model.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := NewQuery().
		Select("id", "name").
		Eq("user_id", userID).
		In("id", ids)

	var subjects []model.Subject
	if err := c.do(ctx, request{method: http.MethodGet, path: restPrefix + TableSubjects, query: q}, &subjects); err != nil {
		return nil, fmt.Errorf("listing subjects by id: %w", err)
	}
	return subjects, nil
}

// ListSubjects returns all of the user's subjects.
func (c *Client) ListSubjects(ctx context.Context, userID string) ([]model.Subject, error) {
	q := NewQuery().
		Select("id", "user_id", "name", "color", "created_at").
		Eq("user_id", userID).
		OrderAsc("name")

	var subjects []model.Subject
	if err := c.do(ctx, request{method: http.MethodGet, path: restPrefix + TableSubjects, query: q}, &subjects); err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	return subjects, nil
}

// GetSubject returns one subject or ErrNotFound.
func (c *Client) GetSubject(ctx context.Context, userID, id string) (*model.Subject, error) {
	q := NewQuery().
		Select("*").
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1)

	var subjects []model.Subject
	if err := c.do(ctx, request{method: http.MethodGet, path: restPrefix + TableSubjects, query: q}, &subjects); err != nil {
		return nil, fmt.Errorf("getting subject %s: %w", id, err)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("subject %s: %w", id, ErrNotFound)
	}
	return &subjects[0], nil
}

// CreateSubject inserts a subject and returns the stored row.
func (c *Client) CreateSubject(ctx context.Context, subject model.Subject) (*model.Subject, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if subject.ID == "" {
		subject.ID = uuid.New().String()
	}
	if subject.Color == "" {
		subject.Color = model.DefaultSubjectColor
	}

	payload := map[string]interface{}{
		"id":      subject.ID,
		"user_id": subject.UserID,
		"name":    subject.Name,
		"color":   subject.Color,
	}

	var created []model.Subject
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    restPrefix + TableSubjects,
		body:    []interface{}{payload},
		headers: returnRepresentation,
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("creating subject: %w", err)
	}
	if len(created) == 0 {
		return &subject, nil
	}
	return &created[0], nil
}

// DeleteSubject removes a subject.
func (c *Client) DeleteSubject(ctx context.Context, id string) error {
	q := NewQuery().Eq("id", id)
	if err := c.do(ctx, request{method: http.MethodDelete, path: restPrefix + TableSubjects, query: q}, nil); err != nil {
		return fmt.Errorf("deleting subject %s: %w", id, err)
	}
	return nil
}

// ListEvaluations returns evaluations matching filter, ascending by due date.
func (c *Client) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error) {
	q := NewQuery().Select("*")
	if filter.UserID != "" {
		q.Eq("user_id", filter.UserID)
	}
	if filter.SubjectID != "" {
		q.Eq("subject_id", filter.SubjectID)
	}
	if filter.Completed != nil {
		q.EqBool("completed", *filter.Completed)
	}
	if filter.DueFrom != nil || filter.DueTo != nil {
		q.NotNull("due_date")
	}
	if filter.DueFrom != nil {
		q.Gte("due_date", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		q.Lte("due_date", *filter.DueTo)
	}
	q.OrderAsc("due_date").Limit(filter.Limit)

	var evals []model.Evaluation
	if err := c.do(ctx, request{method: http.MethodGet, path: restPrefix + TableEvaluations, query: q}, &evals); err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	return evals, nil
}

// CreateEvaluation validates and inserts an evaluation.
func (c *Client) CreateEvaluation(ctx context.Context, eval model.Evaluation) (*model.Evaluation, error) {
	if err := eval.Validate(time.Now()); err != nil {
		return nil, err
	}
	if eval.ID == "" {
		eval.ID = uuid.New().String()
	}
	if eval.Type == "" {
		eval.Type = model.EvalTypeTest
	}

	payload := map[string]interface{}{
		"id":         eval.ID,
		"user_id":    eval.UserID,
		"subject_id": eval.SubjectID,
		"title":      eval.Title,
		"type":       eval.Type,
		"due_date":   FormatTimestamp(*eval.DueDate),
		"weight":     eval.Weight,
		"grade":      nil,
		"completed":  false,
	}

	var created []model.Evaluation
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    restPrefix + TableEvaluations,
		body:    []interface{}{payload},
		headers: returnRepresentation,
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation: %w", err)
	}
	if len(created) == 0 {
		return &eval, nil
	}
	return &created[0], nil
}

// SetCompleted marks an evaluation completed or pending.
func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) error {
	return c.patchEvaluation(ctx, id, map[string]interface{}{"completed": completed})
}

// SetGrade stores a grade; nil clears it.
func (c *Client) SetGrade(ctx context.Context, id string, grade *float64) error {
	if err := model.ValidateGrade(grade); err != nil {
		return err
	}
	return c.patchEvaluation(ctx, id, map[string]interface{}{"grade": grade})
}

// DeleteEvaluation removes an evaluation.
func (c *Client) DeleteEvaluation(ctx context.Context, id string) error {
	q := NewQuery().Eq("id", id)
	if err := c.do(ctx, request{method: http.MethodDelete, path: restPrefix + TableEvaluations, query: q}, nil); err != nil {
		return fmt.Errorf("deleting evaluation %s: %w", id, err)
	}
	return nil
}

func (c *Client) patchEvaluation(ctx context.Context, id string, fields map[string]interface{}) error {
	q := NewQuery().Eq("id", id)
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPrefix + TableEvaluations,
		query:  q,
		body:   fields,
	}, nil)
	if err != nil {
		return fmt.Errorf("updating evaluation %s: %w", id, err)
	}
	return nil
}
