package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/report"
)

var subjectColor string

var subjectsCmd = &cobra.Command{
	Use:     "subjects",
	Aliases: []string{"ramos"},
	Short:   "Manage subjects",
}

var subjectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession(cmd.Context())
		if err != nil {
			return err
		}
		subjects, err := s.client.ListSubjects(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(subjects)
		}
		printSubjectsTable(subjects)
		return nil
	},
}

var subjectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a subject",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession(cmd.Context())
		if err != nil {
			return err
		}
		created, err := s.client.CreateSubject(cmd.Context(), model.Subject{
			UserID: s.UserID,
			Name:   strings.Join(args, " "),
			Color:  subjectColor,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("Created subject %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var subjectsShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a subject with its evaluations and averages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		subject, err := resolveSubject(ctx, s.client, s.UserID, args[0])
		if err != nil {
			return err
		}
		evals, err := s.client.ListEvaluations(ctx, backend.EvaluationFilter{
			UserID:    s.UserID,
			SubjectID: subject.ID,
		})
		if err != nil {
			return err
		}
		stats := report.SubjectStats(evals)

		if jsonOutput {
			return printJSON(map[string]any{
				"subject":     subject,
				"stats":       stats,
				"evaluations": evals,
			})
		}

		fmt.Printf("%s\n\n", subject.Name)
		printStats(stats)
		fmt.Println()
		loc := cfg.Reminder.Location()
		printEvaluationsTable(evals, report.SubjectMap([]model.Subject{*subject}), now(), loc)
		return nil
	},
}

var subjectsDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>...",
	Short: "Delete subjects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		for _, ref := range args {
			subject, err := resolveSubject(ctx, s.client, s.UserID, ref)
			if err != nil {
				return err
			}
			if err := s.client.DeleteSubject(ctx, subject.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", subject.Name)
		}
		return nil
	},
}

// resolveSubject accepts a subject ID or a case-insensitive name.
func resolveSubject(ctx context.Context, b backend.Backend, userID, ref string) (*model.Subject, error) {
	subjects, err := b.ListSubjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	var byName []model.Subject
	for i := range subjects {
		if subjects[i].ID == ref {
			return &subjects[i], nil
		}
		if strings.EqualFold(subjects[i].Name, ref) {
			byName = append(byName, subjects[i])
		}
	}
	switch len(byName) {
	case 0:
		return nil, fmt.Errorf("subject %q: %w", ref, backend.ErrNotFound)
	case 1:
		return &byName[0], nil
	default:
		return nil, fmt.Errorf("subject name %q is ambiguous, use its ID", ref)
	}
}

func init() {
	subjectsAddCmd.Flags().StringVar(&subjectColor, "color", model.DefaultSubjectColor, "display color (#RRGGBB)")

	subjectsCmd.AddCommand(subjectsListCmd)
	subjectsCmd.AddCommand(subjectsAddCmd)
	subjectsCmd.AddCommand(subjectsShowCmd)
	subjectsCmd.AddCommand(subjectsDeleteCmd)
}
