package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
)

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date        time.Time
	Evaluations []model.Evaluation
}

// Month is a Monday-first month grid.
type Month struct {
	Start time.Time

	// Padding is the number of empty cells before the first day.
	Padding int

	Days     []CalendarDay
	Subjects map[string]model.Subject
}

// MonthBounds returns the first instant of month's month and the last
// instant of its final day in loc.
func MonthBounds(month time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, _ := month.In(loc).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// Calendar lays evals out on the grid of month.
func Calendar(evals []model.Evaluation, month time.Time, loc *time.Location) Month {
	start, end := MonthBounds(month, loc)

	byKey := make(map[string][]model.Evaluation)
	for _, d := range GroupByDay(evals, loc) {
		byKey[d.Key] = d.Evaluations
	}

	// time.Weekday is Sunday-first.
	padding := (int(start.Weekday()) + 6) % 7

	grid := Month{Start: start, Padding: padding}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		grid.Days = append(grid.Days, CalendarDay{
			Date:        day,
			Evaluations: byKey[DayKey(day, loc)],
		})
	}
	return grid
}

// LoadCalendar fetches the month's pending evaluations and builds its grid.
func LoadCalendar(ctx context.Context, b backend.Backend, userID string, month time.Time, loc *time.Location) (*Month, error) {
	if loc == nil {
		loc = time.Local
	}
	start, end := MonthBounds(month, loc)

	var (
		subjects []model.Subject
		evals    []model.Evaluation
	)
	pending := false

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subjects, err = b.ListSubjects(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		evals, err = b.ListEvaluations(gctx, backend.EvaluationFilter{
			UserID:    userID,
			Completed: &pending,
			DueFrom:   &start,
			DueTo:     &end,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading calendar: %w", err)
	}

	grid := Calendar(evals, month, loc)
	grid.Subjects = SubjectMap(subjects)
	return &grid, nil
}
