package report

import (
	"fmt"
	"time"
)

// spanishWeekdays is indexed by time.Weekday.
var spanishWeekdays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// DayKey formats t as yyyy-MM-dd in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// CalendarDays returns the number of calendar days from a to b in loc,
// ignoring the time of day.
func CalendarDays(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}

// DueLabel describes due relative to now: "Atrasada" once it has passed,
// then "Hoy", "Mañana" or "En N días".
func DueLabel(due, now time.Time, loc *time.Location) string {
	if due.Before(now) {
		return "Atrasada"
	}
	switch days := CalendarDays(now, due, loc); days {
	case 0:
		return "Hoy"
	case 1:
		return "Mañana"
	default:
		return fmt.Sprintf("En %d días", days)
	}
}

// FormatDue renders a due date for list rows, e.g. "Hoy, 14:00" or
// "jue 12 de mar, 09:30".
func FormatDue(due, now time.Time, loc *time.Location) string {
	local := due.In(loc)
	switch CalendarDays(now, due, loc) {
	case 0:
		return "Hoy, " + local.Format("15:04")
	case 1:
		return "Mañana, " + local.Format("15:04")
	}
	return fmt.Sprintf("%s %d de %s, %s",
		abbrev(spanishWeekdays[local.Weekday()]),
		local.Day(),
		abbrev(spanishMonths[local.Month()-1]),
		local.Format("15:04"),
	)
}

// DayLabel titles an agenda day: "Hoy", "Mañana", the weekday name within
// the coming week, otherwise "lunes 23 de marzo".
func DayLabel(day, now time.Time, loc *time.Location) string {
	local := day.In(loc)
	switch days := CalendarDays(now, day, loc); {
	case days == 0:
		return "Hoy"
	case days == 1:
		return "Mañana"
	case days >= 2 && days <= 6:
		return spanishWeekdays[local.Weekday()]
	}
	return fmt.Sprintf("%s %d de %s",
		spanishWeekdays[local.Weekday()], local.Day(), spanishMonths[local.Month()-1])
}

// MonthTitle renders "marzo 2026".
func MonthTitle(month time.Time) string {
	return fmt.Sprintf("%s %d", spanishMonths[month.Month()-1], month.Year())
}

func abbrev(s string) string {
	r := []rune(s)
	if len(r) <= 3 {
		return s
	}
	return string(r[:3])
}
