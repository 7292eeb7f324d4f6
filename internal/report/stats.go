// Package report derives the read-only views of a user's evaluations:
// subject statistics, the dashboard, the agenda and the month calendar.
package report

import (
	"math"

	"github.com/nhle/evaltracker/internal/model"
)

// Stats summarizes the evaluations of one subject.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`

	// GradeCount is the number of graded evaluations.
	GradeCount int `json:"grade_count"`

	// Average is the plain mean of all grades, nil when nothing is graded.
	Average *float64 `json:"average"`

	// WeightedAverage only considers evaluations carrying both a grade
	// and a positive weight. Nil when there are none.
	WeightedAverage *float64 `json:"weighted_average"`
}

// Passing reports whether the weighted average, or failing that the plain
// average, reaches the passing grade.
func (s Stats) Passing() bool {
	switch {
	case s.WeightedAverage != nil:
		return *s.WeightedAverage >= model.PassGrade
	case s.Average != nil:
		return *s.Average >= model.PassGrade
	default:
		return false
	}
}

// SubjectStats computes Stats over evals. Averages are rounded to one
// decimal place.
func SubjectStats(evals []model.Evaluation) Stats {
	var (
		s                      Stats
		gradeSum               float64
		weightSum, weightedSum float64
	)

	for _, e := range evals {
		s.Total++
		if e.Completed {
			s.Completed++
		}
		if e.Grade == nil {
			continue
		}
		s.GradeCount++
		gradeSum += *e.Grade
		if e.Weight != nil && *e.Weight > 0 {
			weightSum += *e.Weight
			weightedSum += *e.Grade * *e.Weight
		}
	}
	s.Pending = s.Total - s.Completed

	if s.GradeCount > 0 {
		avg := round1(gradeSum / float64(s.GradeCount))
		s.Average = &avg
	}
	if weightSum > 0 {
		avg := round1(weightedSum / weightSum)
		s.WeightedAverage = &avg
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
