package reminder

import (
	"fmt"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
)

// UnknownSubject labels evaluations whose subject could not be resolved.
const UnknownSubject = "Sin ramo"

// UrgencyText is the qualitative phrase closing a reminder body.
func UrgencyText(hoursLeft int) string {
	if hoursLeft <= 1 {
		return "¡Menos de 1 hora!"
	}
	return fmt.Sprintf("Quedan %dh", hoursLeft)
}

// Title is the notification title for u.
func Title(u model.UrgentEvaluation) string {
	return "⚠️ " + u.Title
}

// Body is the notification body for u, e.g.
// "Calculus — Entrega hoy a las 14:00. Quedan 5h".
func Body(u model.UrgentEvaluation) string {
	return fmt.Sprintf("%s — Entrega hoy a las %s. %s", u.SubjectName, u.TimeStr, UrgencyText(u.HoursLeft))
}

// Tag is the per-evaluation collapse tag.
func Tag(evalID string) string {
	return "eval-" + evalID
}

// BuildNotification assembles the platform notification for u.
func BuildNotification(u model.UrgentEvaluation) notify.Notification {
	return notify.Notification{
		Title: Title(u),
		Body:  Body(u),
		Tag:   Tag(u.ID),
	}
}
