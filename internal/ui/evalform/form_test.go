package evalform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evaltracker/internal/model"
)

func TestParseDue(t *testing.T) {
	loc := time.FixedZone("CLT", -3*60*60)

	got, err := ParseDue("2026-03-12 14:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 14, 30, 0, 0, loc), got)

	got, err = ParseDue(" 2026-03-12 ", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 23, 59, 0, 0, loc), got)

	_, err = ParseDue("12/03/2026", loc)
	assert.Error(t, err)
}

func TestParseWeight(t *testing.T) {
	w, err := ParseWeight("")
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = ParseWeight("25,5%")
	require.NoError(t, err)
	assert.Equal(t, 25.5, *w)

	_, err = ParseWeight("120")
	assert.ErrorIs(t, err, model.ErrWeightRange)

	_, err = ParseWeight("mucho")
	assert.ErrorIs(t, err, model.ErrWeightRange)
}

func TestBindingsEvaluation(t *testing.T) {
	b := &Bindings{
		Title:     "  Informe  ",
		SubjectID: "s1",
		Type:      model.EvalTypeProject,
		Due:       "2026-04-01 09:00",
		Weight:    "40",
	}

	e, err := b.Evaluation("u1", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "Informe", e.Title)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "s1", e.SubjectID)
	assert.Equal(t, model.EvalTypeProject, e.Type)
	assert.Equal(t, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), *e.DueDate)
	assert.Equal(t, 40.0, *e.Weight)
}

func TestBuildDefaultsType(t *testing.T) {
	b := &Bindings{}
	form := Build(b, []model.Subject{{ID: "s1", Name: "Cálculo"}}, time.UTC)

	require.NotNil(t, form)
	assert.Equal(t, model.EvalTypeTest, b.Type)
}
