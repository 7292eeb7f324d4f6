package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/evaltracker/internal/model"
)

// now is the clock shared by every command.
var now = time.Now

// parseGrade accepts a 1-7 grade with a dot or comma, or "clear".
func parseGrade(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "clear") || s == "-" {
		return nil, nil
	}
	g, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid grade %q", s)
	}
	if err := model.ValidateGrade(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// parseType accepts a stored type value or its label, case-insensitively.
func parseType(s string) (model.EvaluationType, error) {
	s = strings.TrimSpace(s)
	for _, t := range model.EvaluationTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown evaluation type %q", s)
}

// parseMonth reads YYYY-MM, defaulting to the current month.
func parseMonth(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: use YYYY-MM", s)
	}
	return t, nil
}
