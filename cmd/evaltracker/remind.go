package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/reminder"
	"github.com/nhle/evaltracker/internal/store"
)

var (
	requestPermission bool
	remindDryRun      bool
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Check for evaluations due within a day and notify",
}

var remindCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one reminder cycle",
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

		var (
			platform notify.Platform
			repo     store.NotifiedRepository = st
		)
		if remindDryRun {
			platform = notify.NewRecorder(notify.PermissionGranted)
			if repo, err = dryRunRepo(ctx, st); err != nil {
				return err
			}
		} else {
			if platform, err = newPlatform(st); err != nil {
				return err
			}
			if perm := platform.Permission(); perm != notify.PermissionGranted {
				logger.Warn("notifications are not permitted, run 'remind permission --request'", "permission", perm)
			}
		}

		checker := newChecker(s.client, repo, platform)
		result := checker.Check(ctx, s.UserID)
		if result.Reason == reminder.ReasonQueryFailed {
			return fmt.Errorf("reminder check failed: %w", result.Err)
		}

		if jsonOutput {
			return printJSON(map[string]any{
				"urgent":   result.Urgent,
				"notified": result.Notified,
			})
		}
		if remindDryRun {
			if rec, ok := platform.(*notify.Recorder); ok {
				for _, n := range rec.Shown() {
					fmt.Printf("%s\n  %s\n", n.Title, n.Body)
				}
			}
		}
		printUrgent(result.Urgent)
		fmt.Printf("%d urgent, %d notified\n", len(result.Urgent), result.Notified)
		return nil
	},
}

var remindDaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Check every interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := requireSession(ctx)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		platform, err := newPlatform(st)
		if err != nil {
			return err
		}
		if perm := ensurePermission(ctx, platform, st); perm != notify.PermissionGranted {
			logger.Warn("notifications are not permitted, only logging", "permission", perm)
		}

		checker := newChecker(s.client, st, platform)
		checker.Start(s.UserID, func(urgent []model.UrgentEvaluation) {
			logger.Info("urgent evaluations", "count", len(urgent))
		})
		logger.Info("reminder daemon started", "user_id", s.UserID, "interval", cfg.Reminder.Interval)

		<-ctx.Done()
		checker.Stop()
		logger.Info("reminder daemon stopped")
		return nil
	},
}

var remindPermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Show or request notification permission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		platform, err := newPlatform(st)
		if err != nil {
			return err
		}

		perm := platform.Permission()
		if requestPermission {
			perm = notify.RequestPermission(ctx, platform)
			if perm == notify.PermissionDenied && interactive(platform) {
				if err := st.SetPromptDismissed(ctx, true); err != nil {
					return err
				}
			}
		}

		if jsonOutput {
			return printJSON(map[string]string{
				"platform":   cfg.Notify.Platform,
				"permission": string(perm),
			})
		}
		fmt.Printf("%s: %s\n", cfg.Notify.Platform, perm)
		return nil
	},
}

// dryRunRepo copies the dedup map into memory so a dry run reports what
// would be sent without recording it.
func dryRunRepo(ctx context.Context, src store.NotifiedRepository) (store.NotifiedRepository, error) {
	mem := store.NewMemoryStore()
	m, err := src.GetNotifiedMap(ctx)
	if err != nil && !errors.Is(err, store.ErrCorruptValue) {
		return nil, err
	}
	if len(m) > 0 {
		if err := mem.PutNotifiedMap(ctx, m); err != nil {
			return nil, err
		}
	}
	return mem, nil
}

func printUrgent(urgent []model.UrgentEvaluation) {
	for _, u := range urgent {
		fmt.Printf("%s  %s  %s  (%s)\n", u.TimeStr, u.Title, u.SubjectName, reminder.UrgencyText(u.HoursLeft))
	}
}

func init() {
	remindPermissionCmd.Flags().BoolVar(&requestPermission, "request", false, "ask for permission if undecided")
	remindCheckCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "print notifications instead of sending them")

	remindCmd.AddCommand(remindCheckCmd)
	remindCmd.AddCommand(remindDaemonCmd)
	remindCmd.AddCommand(remindPermissionCmd)
}
