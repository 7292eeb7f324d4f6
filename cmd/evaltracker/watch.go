package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/app"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live agenda with due-soon alerts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		// The terminal platform would draw over the TUI; its banner takes
		// that role here.
		var platform notify.Platform
		if cfg.Notify.Platform != model.PlatformTerminal {
			if platform, err = newPlatform(st); err != nil {
				return err
			}
			ensurePermission(ctx, platform, st)
		}

		checker := newChecker(s.client, st, platform)
		defer checker.Stop()

		m := app.New(app.Config{
			Backend:  s.client,
			Checker:  checker,
			UserID:   s.UserID,
			Email:    s.Email,
			Location: cfg.Reminder.Location(),
			Days:     cfg.Display.AgendaDays,
		})

		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}
