package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/report"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatGrade(g *float64) string {
	if g == nil {
		return "-"
	}
	return strconv.FormatFloat(*g, 'f', 1, 64)
}

func formatWeight(w *float64) string {
	if w == nil || *w <= 0 {
		return "-"
	}
	return strconv.FormatFloat(*w, 'f', -1, 64) + "%"
}

func printSubjectsTable(subjects []model.Subject) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR")
	for _, s := range subjects {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.DisplayColor())
	}
	w.Flush()
}

func printEvaluationsTable(evals []model.Evaluation, subjects map[string]model.Subject, now time.Time, loc *time.Location) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tSTATUS\tTYPE\tSUBJECT\tTITLE\tWEIGHT\tGRADE")
	for _, e := range evals {
		due, status := "-", "pendiente"
		if e.DueDate != nil {
			due = report.FormatDue(*e.DueDate, now, loc)
			status = report.DueLabel(*e.DueDate, now, loc)
		}
		if e.Completed {
			status = "completada"
		}
		subject := subjects[e.SubjectID].Name
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			due,
			status,
			e.Type.Label(),
			truncate(subject, 20),
			truncate(e.Title, 40),
			formatWeight(e.Weight),
			formatGrade(e.Grade),
		)
	}
	w.Flush()
}

func printEvaluation(e *model.Evaluation, subject string, loc *time.Location) {
	fmt.Printf("ID:         %s\n", e.ID)
	fmt.Printf("Title:      %s\n", e.Title)
	fmt.Printf("Type:       %s\n", e.Type.Label())
	fmt.Printf("Subject:    %s\n", subject)
	if e.DueDate != nil {
		fmt.Printf("Due:        %s\n", e.DueDate.In(loc).Format("2006-01-02 15:04"))
	}
	fmt.Printf("Weight:     %s\n", formatWeight(e.Weight))
	fmt.Printf("Grade:      %s\n", formatGrade(e.Grade))
	fmt.Printf("Completed:  %t\n", e.Completed)
}

func printStats(s report.Stats) {
	fmt.Printf("Total:      %d\n", s.Total)
	fmt.Printf("Completed:  %d\n", s.Completed)
	fmt.Printf("Pending:    %d\n", s.Pending)
	fmt.Printf("Average:    %s\n", formatGrade(s.Average))
	if s.WeightedAverage != nil {
		fmt.Printf("Weighted:   %s (%d graded)\n", formatGrade(s.WeightedAverage), s.GradeCount)
	}
}
