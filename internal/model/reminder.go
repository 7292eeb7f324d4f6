package model

import "time"

// UrgentEvaluation is a pending evaluation due within the lookahead window,
// denormalized with the data needed to render a reminder.
type UrgentEvaluation struct {
	Evaluation

	// SubjectName is the owning subject's display name, or a placeholder
	// when the subject could not be resolved.
	SubjectName string `json:"subject_name"`

	// HoursLeft is the number of whole hours until the due date.
	HoursLeft int `json:"hours_left"`

	// TimeStr is the due time of day formatted as HH:mm.
	TimeStr string `json:"time_str"`
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
