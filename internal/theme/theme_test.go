package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/evaltracker/internal/model"
)

func TestSubjectStyleFallsBack(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#FF3B30"), SubjectStyle("#FF3B30").GetForeground())
	assert.Equal(t, lipgloss.Color(model.DefaultSubjectColor), SubjectStyle("red").GetForeground())
	assert.Equal(t, lipgloss.Color(model.DefaultSubjectColor), SubjectStyle("").GetForeground())
}

func TestGradeStyle(t *testing.T) {
	assert.Equal(t, ColorGreen, GradeStyle(4.0).GetForeground())
	assert.Equal(t, ColorRed, GradeStyle(3.9).GetForeground())
}

func TestDueStyle(t *testing.T) {
	assert.Equal(t, ColorRed, DueStyle("Hoy").GetForeground())
	assert.Equal(t, ColorOrange, DueStyle("Mañana").GetForeground())
	assert.Equal(t, ColorBlue, DueStyle("En 4 días").GetForeground())
}
