package app

import (
	"fmt"
	"strings"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/reminder"
	"github.com/nhle/evaltracker/internal/report"
	"github.com/nhle/evaltracker/internal/theme"
)

func (m Model) renderAgenda() string {
	if m.agenda == nil {
		return ""
	}
	if len(m.agenda.Days) == 0 {
		return theme.DimmedStyle.Render("\n  Nada pendiente en este rango.")
	}

	now := m.cfg.Now()
	loc := m.cfg.Location

	var b strings.Builder
	row := 0
	for _, d := range m.agenda.Days {
		b.WriteString(theme.DayHeaderStyle.Render(report.DayLabel(d.Date, now, loc)))
		b.WriteString(" ")
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("(%d)", len(d.Evaluations))))
		b.WriteString("\n")

		for _, e := range d.Evaluations {
			line := m.renderRow(e)
			if row == m.cursor {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
			row++
		}
	}

	return clip(b.String(), m.layout.ContentHeight())
}

func (m Model) renderRow(e model.Evaluation) string {
	now := m.cfg.Now()
	loc := m.cfg.Location

	subject := reminder.UnknownSubject
	color := model.DefaultSubjectColor
	if s, ok := m.agenda.Subjects[e.SubjectID]; ok {
		subject = s.Name
		color = s.DisplayColor()
	}

	parts := []string{
		e.Title,
		theme.SubjectStyle(color).Render(subject),
		theme.DimmedStyle.Render(e.Type.Label()),
	}
	if e.Weight != nil && *e.Weight > 0 {
		parts = append(parts, theme.DimmedStyle.Render(fmt.Sprintf("%g%%", *e.Weight)))
	}
	if e.DueDate != nil {
		label := report.DueLabel(*e.DueDate, now, loc)
		parts = append(parts,
			theme.DimmedStyle.Render(report.FormatDue(*e.DueDate, now, loc)),
			theme.DueStyle(label).Render(label),
		)
	}
	return strings.Join(parts, "  ")
}

// clip keeps at most height lines.
func clip(s string, height int) string {
	if height <= 0 {
		return s
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
