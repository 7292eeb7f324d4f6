package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/evaltracker/internal/model"
)

func TestUrgencyText(t *testing.T) {
	assert.Equal(t, "¡Menos de 1 hora!", UrgencyText(0))
	assert.Equal(t, "¡Menos de 1 hora!", UrgencyText(1))
	assert.Equal(t, "Quedan 2h", UrgencyText(2))
	assert.Equal(t, "Quedan 23h", UrgencyText(23))
}

func TestBuildNotification(t *testing.T) {
	u := model.UrgentEvaluation{
		Evaluation:  model.Evaluation{ID: "abc", Title: "Final"},
		SubjectName: "Historia",
		HoursLeft:   7,
		TimeStr:     "09:05",
	}

	n := BuildNotification(u)

	assert.Equal(t, "⚠️ Final", n.Title)
	assert.Equal(t, "Historia — Entrega hoy a las 09:05. Quedan 7h", n.Body)
	assert.Equal(t, "eval-abc", n.Tag)
	assert.Nil(t, n.OnClick)
}
