package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/report"
)

var (
	agendaDays    int
	agendaSubject string
	calendarMonth string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show totals and the next pending evaluations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession(cmd.Context())
		if err != nil {
			return err
		}
		d, err := report.LoadDashboard(cmd.Context(), s.client, s.UserID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(d)
		}
		fmt.Printf("Total: %d  Completed: %d  Pending: %d\n\n", d.Total, d.Completed, d.Pending)
		printEvaluationsTable(d.Upcoming, d.Subjects, now(), cfg.Reminder.Location())
		return nil
	},
}

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "List pending evaluations day by day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		days := agendaDays
		if !cmd.Flags().Changed("days") {
			days = cfg.Display.AgendaDays
		}
		opts := report.AgendaOptions{
			Now:      now(),
			Days:     days,
			Location: cfg.Reminder.Location(),
		}
		if agendaSubject != "" {
			subject, err := resolveSubject(ctx, s.client, s.UserID, agendaSubject)
			if err != nil {
				return err
			}
			opts.SubjectID = subject.ID
		}

		a, err := report.LoadAgenda(ctx, s.client, s.UserID, opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(a)
		}
		if len(a.Days) == 0 {
			fmt.Printf("Nothing due in the next %d days\n", days)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, d := range a.Days {
			fmt.Fprintf(w, "%s (%s)\n", report.DayLabel(d.Date, opts.Now, opts.Location), d.Key)
			for _, e := range d.Evaluations {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
					e.DueDate.In(opts.Location).Format("15:04"),
					e.Title,
					a.Subjects[e.SubjectID].Name,
					report.DueLabel(*e.DueDate, opts.Now, opts.Location),
				)
			}
		}
		return w.Flush()
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print a month grid marking days with pending evaluations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession(cmd.Context())
		if err != nil {
			return err
		}
		loc := cfg.Reminder.Location()
		month, err := parseMonth(calendarMonth, loc)
		if err != nil {
			return err
		}
		grid, err := report.LoadCalendar(cmd.Context(), s.client, s.UserID, month, loc)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(grid)
		}
		fmt.Print(renderMonth(grid))
		return nil
	},
}

// renderMonth draws a Monday-first grid; days with evaluations carry the
// count in brackets.
func renderMonth(m *report.Month) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", report.MonthTitle(m.Start))
	b.WriteString("  lu    ma    mi    ju    vi    sá    do\n")

	col := 0
	for ; col < m.Padding; col++ {
		b.WriteString("      ")
	}
	for _, d := range m.Days {
		cell := fmt.Sprintf("%4d  ", d.Date.Day())
		if n := len(d.Evaluations); n > 0 {
			cell = fmt.Sprintf("%2d[%d] ", d.Date.Day(), n)
		}
		b.WriteString(cell)
		col++
		if col%7 == 0 {
			b.WriteString("\n")
		}
	}
	if col%7 != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	agendaCmd.Flags().IntVar(&agendaDays, "days", 7, "lookahead in days")
	agendaCmd.Flags().StringVar(&agendaSubject, "subject", "", "only this subject (ID or name)")
	calendarCmd.Flags().StringVar(&calendarMonth, "month", "", "month to show, YYYY-MM (default current)")
}
