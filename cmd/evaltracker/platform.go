package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/notify/telegram"
	"github.com/nhle/evaltracker/internal/notify/terminal"
	"github.com/nhle/evaltracker/internal/reminder"
	"github.com/nhle/evaltracker/internal/store"
)

// newPlatform builds the configured notification platform.
func newPlatform(prefs store.PreferenceRepository) (notify.Platform, error) {
	switch cfg.Notify.Platform {
	case model.PlatformTerminal, "":
		return terminal.New(os.Stdout, prefs, nil), nil
	case model.PlatformTelegram:
		return telegram.New(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, prefs), nil
	default:
		return nil, fmt.Errorf("unknown notification platform %q", cfg.Notify.Platform)
	}
}

// ensurePermission asks for consent once. A dismissed terminal prompt is
// not shown again; other platforms have no prompt to dismiss.
func ensurePermission(ctx context.Context, p notify.Platform, prefs store.PreferenceRepository) notify.Permission {
	if p.Permission() != notify.PermissionDefault {
		return p.Permission()
	}
	if interactive(p) {
		dismissed, err := prefs.PromptDismissed(ctx)
		if err != nil {
			logger.Warn("reading prompt preference", "error", err)
		}
		if dismissed {
			return p.Permission()
		}
	}
	return notify.RequestPermission(ctx, p)
}

func interactive(p notify.Platform) bool {
	_, ok := p.(*terminal.Platform)
	return ok
}

func newChecker(evals backend.Evaluations, repo store.NotifiedRepository, p notify.Platform, opts ...reminder.Option) *reminder.Checker {
	rc := cfg.Reminder
	base := []reminder.Option{
		reminder.WithLogger(logger),
		reminder.WithLocation(rc.Location()),
		reminder.WithInterval(rc.Interval),
	}
	if rc.Lookahead > 0 {
		base = append(base, reminder.WithLookahead(rc.Lookahead))
	}
	if rc.DedupWindow > 0 {
		base = append(base, reminder.WithDedupWindow(rc.DedupWindow))
	}
	if rc.DismissAfter > 0 {
		base = append(base, reminder.WithDismissAfter(rc.DismissAfter))
	}
	return reminder.New(evals, repo, p, append(base, opts...)...)
}
