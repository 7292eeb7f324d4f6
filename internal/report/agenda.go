package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
)

// AgendaRanges are the selectable lookahead spans in days.
var AgendaRanges = []int{7, 14, 30, 60}

// Day groups the evaluations due on one calendar day.
type Day struct {
	Key         string             `json:"date"`
	Date        time.Time          `json:"-"`
	Evaluations []model.Evaluation `json:"evaluations"`
}

// Agenda lists pending evaluations day by day.
type Agenda struct {
	From     time.Time                `json:"from"`
	To       time.Time                `json:"to"`
	Subjects map[string]model.Subject `json:"subjects"`
	Days     []Day                    `json:"days"`
}

// AgendaOptions narrows LoadAgenda.
type AgendaOptions struct {
	Now      time.Time
	Days     int
	Location *time.Location

	// SubjectID keeps only one subject's evaluations when set.
	SubjectID string
}

// LoadAgenda fetches pending evaluations due in [now, now+days] and groups
// them by day.
func LoadAgenda(ctx context.Context, b backend.Backend, userID string, opts AgendaOptions) (*Agenda, error) {
	if opts.Days <= 0 {
		opts.Days = AgendaRanges[0]
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	from := opts.Now
	to := from.AddDate(0, 0, opts.Days)

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
			SubjectID: opts.SubjectID,
			Completed: &pending,
			DueFrom:   &from,
			DueTo:     &to,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading agenda: %w", err)
	}

	return &Agenda{
		From:     from,
		To:       to,
		Subjects: SubjectMap(subjects),
		Days:     GroupByDay(FilterSubject(evals, opts.SubjectID), opts.Location),
	}, nil
}

// FilterSubject keeps the evaluations of subjectID; empty keeps all.
func FilterSubject(evals []model.Evaluation, subjectID string) []model.Evaluation {
	if subjectID == "" {
		return evals
	}
	var out []model.Evaluation
	for _, e := range evals {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out
}

// GroupByDay buckets dated evaluations by their yyyy-MM-dd key in loc.
// Days are sorted ascending and each day's evaluations by due time.
// Undated evaluations are skipped.
func GroupByDay(evals []model.Evaluation, loc *time.Location) []Day {
	byKey := make(map[string]*Day)
	for _, e := range evals {
		if e.DueDate == nil {
			continue
		}
		key := DayKey(*e.DueDate, loc)
		d, ok := byKey[key]
		if !ok {
			y, m, dd := e.DueDate.In(loc).Date()
			d = &Day{Key: key, Date: time.Date(y, m, dd, 0, 0, 0, 0, loc)}
			byKey[key] = d
		}
		d.Evaluations = append(d.Evaluations, e)
	}

	days := make([]Day, 0, len(byKey))
	for _, d := range byKey {
		sort.SliceStable(d.Evaluations, func(i, j int) bool {
			return d.Evaluations[i].DueDate.Before(*d.Evaluations[j].DueDate)
		})
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Key < days[j].Key })
	return days
}
