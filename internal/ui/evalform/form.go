// Package evalform is the interactive form for creating an evaluation.
package evalform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/evaltracker/internal/model"
)

var dueLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDue reads a local date-time. A bare date means 23:59 that day.
func ParseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(23*time.Hour + 59*time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD HH:MM", s)
}

// ParseWeight reads an optional 0-100 percentage. Empty yields nil.
func ParseWeight(s string) (*float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil, nil
	}
	w, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || w < 0 || w > 100 {
		return nil, model.ErrWeightRange
	}
	return &w, nil
}

// Bindings holds form field values on the heap so that huh's Value()
// pointers stay valid.
type Bindings struct {
	Title     string
	SubjectID string
	Type      model.EvaluationType
	Due       string
	Weight    string
}

// Evaluation converts the bound values into an evaluation for userID.
func (b *Bindings) Evaluation(userID string, loc *time.Location) (model.Evaluation, error) {
	due, err := ParseDue(b.Due, loc)
	if err != nil {
		return model.Evaluation{}, err
	}
	weight, err := ParseWeight(b.Weight)
	if err != nil {
		return model.Evaluation{}, err
	}
	return model.Evaluation{
		UserID:    userID,
		SubjectID: b.SubjectID,
		Title:     strings.TrimSpace(b.Title),
		Type:      b.Type,
		DueDate:   &due,
		Weight:    weight,
	}, nil
}

// Build assembles the form over subjects. Fields already set in b are
// used as defaults.
func Build(b *Bindings, subjects []model.Subject, loc *time.Location) *huh.Form {
	if b.Type == "" {
		b.Type = model.EvalTypeTest
	}

	subjectOpts := make([]huh.Option[string], 0, len(subjects))
	for _, s := range subjects {
		subjectOpts = append(subjectOpts, huh.NewOption(s.Name, s.ID))
	}
	typeOpts := make([]huh.Option[model.EvaluationType], 0, len(model.EvaluationTypes))
	for _, t := range model.EvaluationTypes {
		typeOpts = append(typeOpts, huh.NewOption(t.Label(), t))
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Título").
			Placeholder("Control 2, Informe final...").
			Value(&b.Title).
			Validate(validateRequired("title")),
		huh.NewSelect[string]().
			Title("Ramo").
			Options(subjectOpts...).
			Value(&b.SubjectID),
		huh.NewSelect[model.EvaluationType]().
			Title("Tipo").
			Options(typeOpts...).
			Value(&b.Type),
		huh.NewInput().
			Title("Fecha de entrega").
			Placeholder("YYYY-MM-DD HH:MM").
			Value(&b.Due).
			Validate(func(s string) error {
				_, err := ParseDue(s, loc)
				return err
			}),
		huh.NewInput().
			Title("Ponderación (%)").
			Placeholder("opcional").
			Value(&b.Weight).
			Validate(func(s string) error {
				_, err := ParseWeight(s)
				return err
			}),
	))
}

// Run shows the form on the terminal and returns the evaluation entered.
func Run(ctx context.Context, b *Bindings, subjects []model.Subject, userID string, loc *time.Location) (model.Evaluation, error) {
	if len(subjects) == 0 {
		return model.Evaluation{}, model.ErrSubjectRequired
	}
	if err := Build(b, subjects, loc).RunWithContext(ctx); err != nil {
		return model.Evaluation{}, fmt.Errorf("running evaluation form: %w", err)
	}
	return b.Evaluation(userID, loc)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
