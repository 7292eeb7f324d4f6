package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluation_Validate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		eval Evaluation
		want error
	}{
		{"valid", Evaluation{Title: "Midterm", SubjectID: "s1", DueDate: &future}, nil},
		{"blank title", Evaluation{Title: "  ", SubjectID: "s1", DueDate: &future}, ErrTitleRequired},
		{"no subject", Evaluation{Title: "Midterm", DueDate: &future}, ErrSubjectRequired},
		{"no due date", Evaluation{Title: "Midterm", SubjectID: "s1"}, ErrDueDateRequired},
		{"past due date", Evaluation{Title: "Midterm", SubjectID: "s1", DueDate: &past}, ErrDueDateInPast},
		{"weight too high", Evaluation{Title: "Midterm", SubjectID: "s1", DueDate: &future, Weight: ptr(101.0)}, ErrWeightRange},
		{"weight negative", Evaluation{Title: "Midterm", SubjectID: "s1", DueDate: &future, Weight: ptr(-1.0)}, ErrWeightRange},
		{"weight bounds", Evaluation{Title: "Midterm", SubjectID: "s1", DueDate: &future, Weight: ptr(100.0)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eval.Validate(now))
		})
	}
}

func TestValidateGrade(t *testing.T) {
	assert.NoError(t, ValidateGrade(nil))
	assert.NoError(t, ValidateGrade(ptr(1.0)))
	assert.NoError(t, ValidateGrade(ptr(7.0)))
	assert.ErrorIs(t, ValidateGrade(ptr(0.9)), ErrGradeRange)
	assert.ErrorIs(t, ValidateGrade(ptr(7.1)), ErrGradeRange)
}

func TestEvaluation_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	assert.True(t, Evaluation{DueDate: &past}.IsOverdue(now))
	assert.False(t, Evaluation{DueDate: &past, Completed: true}.IsOverdue(now))
	assert.False(t, Evaluation{}.IsOverdue(now))
}

func TestEvaluationType_Label(t *testing.T) {
	assert.Equal(t, "Exposición", EvalTypePresentation.Label())
	assert.Equal(t, "Prueba", EvaluationType("unknown").Label())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, Session{}.Expired(now))
	assert.True(t, Session{ExpiresAt: now}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}
