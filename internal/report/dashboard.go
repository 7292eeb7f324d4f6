package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
)

// UpcomingLimit caps the pending evaluations shown on the dashboard.
const UpcomingLimit = 20

// Dashboard is the landing summary of a user's work.
type Dashboard struct {
	Subjects map[string]model.Subject `json:"subjects"`
	Upcoming []model.Evaluation       `json:"upcoming"`

	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// SubjectName resolves a subject ID to its name.
func (d *Dashboard) SubjectName(id string) string {
	if s, ok := d.Subjects[id]; ok {
		return s.Name
	}
	return ""
}

// LoadDashboard issues the subject, upcoming and count reads concurrently.
func LoadDashboard(ctx context.Context, b backend.Backend, userID string) (*Dashboard, error) {
	var (
		subjects []model.Subject
		upcoming []model.Evaluation
		all      []model.Evaluation
	)
	pending := false

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subjects, err = b.ListSubjects(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		upcoming, err = b.ListEvaluations(ctx, backend.EvaluationFilter{
			UserID:    userID,
			Completed: &pending,
			Limit:     UpcomingLimit,
		})
		return err
	})
	g.Go(func() error {
		var err error
		all, err = b.ListEvaluations(ctx, backend.EvaluationFilter{UserID: userID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}

	d := &Dashboard{
		Subjects: SubjectMap(subjects),
		Upcoming: upcoming,
		Total:    len(all),
	}
	for _, e := range all {
		if e.Completed {
			d.Completed++
		}
	}
	d.Pending = d.Total - d.Completed
	return d, nil
}

// SubjectMap indexes subjects by ID.
func SubjectMap(subjects []model.Subject) map[string]model.Subject {
	m := make(map[string]model.Subject, len(subjects))
	for _, s := range subjects {
		m[s.ID] = s
	}
	return m
}
