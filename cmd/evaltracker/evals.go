package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/report"
	"github.com/nhle/evaltracker/internal/ui/evalform"
)

var (
	evalSubject string
	evalType    string
	evalDue     string
	evalWeight  float64
	evalPending bool
	evalLimit   int
)

var evalsCmd = &cobra.Command{
	Use:     "evals",
	Aliases: []string{"evaluations"},
	Short:   "Manage evaluations",
}

var evalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluations by due date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		subjects, err := s.client.ListSubjects(ctx, s.UserID)
		if err != nil {
			return err
		}

		filter := backend.EvaluationFilter{UserID: s.UserID, Limit: evalLimit}
		if evalSubject != "" {
			subject, err := resolveSubject(ctx, s.client, s.UserID, evalSubject)
			if err != nil {
				return err
			}
			filter.SubjectID = subject.ID
		}
		if evalPending {
			pending := false
			filter.Completed = &pending
		}

		evals, err := s.client.ListEvaluations(ctx, filter)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(evals)
		}
		printEvaluationsTable(evals, report.SubjectMap(subjects), now(), cfg.Reminder.Location())
		fmt.Printf("\n%d evaluations\n", len(evals))
		return nil
	},
}

var evalsAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create an evaluation; missing fields are asked for interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		subjects, err := s.client.ListSubjects(ctx, s.UserID)
		if err != nil {
			return err
		}

		fb := &evalform.Bindings{Title: strings.Join(args, " "), Due: evalDue}
		if evalSubject != "" {
			subject, err := resolveSubject(ctx, s.client, s.UserID, evalSubject)
			if err != nil {
				return err
			}
			fb.SubjectID = subject.ID
		}
		if fb.Type, err = parseType(evalType); err != nil {
			return err
		}
		if cmd.Flags().Changed("weight") {
			fb.Weight = strconv.FormatFloat(evalWeight, 'f', -1, 64)
		}

		loc := cfg.Reminder.Location()
		var eval model.Evaluation
		if fb.Title == "" || fb.SubjectID == "" || fb.Due == "" {
			eval, err = evalform.Run(ctx, fb, subjects, s.UserID, loc)
		} else {
			eval, err = fb.Evaluation(s.UserID, loc)
		}
		if err != nil {
			return err
		}

		created, err := s.client.CreateEvaluation(ctx, eval)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		printEvaluation(created, report.SubjectMap(subjects)[created.SubjectID].Name, loc)
		return nil
	},
}

func setCompleted(completed bool, verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := s.client.SetCompleted(ctx, id, completed); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", verb, id)
		}
		return nil
	}
}

var evalsCompleteCmd = &cobra.Command{
	Use:   "complete <id>...",
	Short: "Mark evaluations as done",
	Args:  cobra.MinimumNArgs(1),
	RunE:  setCompleted(true, "Completed"),
}

var evalsReopenCmd = &cobra.Command{
	Use:   "reopen <id>...",
	Short: "Mark evaluations as pending again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  setCompleted(false, "Reopened"),
}

var evalsGradeCmd = &cobra.Command{
	Use:   "grade <id> <grade|clear>",
	Short: "Record a 1.0-7.0 grade, or clear it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		grade, err := parseGrade(args[1])
		if err != nil {
			return err
		}
		if err := s.client.SetGrade(ctx, args[0], grade); err != nil {
			return err
		}
		fmt.Printf("Grade of %s set to %s\n", args[0], formatGrade(grade))
		return nil
	},
}

var evalsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete evaluations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := s.client.DeleteEvaluation(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	evalsListCmd.Flags().StringVar(&evalSubject, "subject", "", "only this subject (ID or name)")
	evalsListCmd.Flags().BoolVar(&evalPending, "pending", false, "only pending evaluations")
	evalsListCmd.Flags().IntVar(&evalLimit, "limit", 0, "maximum rows (0 for all)")

	evalsAddCmd.Flags().StringVar(&evalSubject, "subject", "", "subject ID or name")
	evalsAddCmd.Flags().StringVar(&evalType, "type", string(model.EvalTypeTest), "prueba, trabajo, tarea, exposicion, proyecto or quiz")
	evalsAddCmd.Flags().StringVar(&evalDue, "due", "", "due date, YYYY-MM-DD HH:MM")
	evalsAddCmd.Flags().Float64Var(&evalWeight, "weight", 0, "weight in percent (0-100)")

	evalsCmd.AddCommand(evalsListCmd)
	evalsCmd.AddCommand(evalsAddCmd)
	evalsCmd.AddCommand(evalsCompleteCmd)
	evalsCmd.AddCommand(evalsReopenCmd)
	evalsCmd.AddCommand(evalsGradeCmd)
	evalsCmd.AddCommand(evalsDeleteCmd)
}
