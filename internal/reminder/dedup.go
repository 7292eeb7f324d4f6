package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/evaltracker/internal/store"
)

// loadNotified reads the dedup map and drops entries at least window old.
// Expiry is only evaluated here, so an entry can outlive the window by up
// to one check interval. Unreadable or corrupt contents read as empty.
func (c *Checker) loadNotified(ctx context.Context, now time.Time) map[string]time.Time {
	stored, err := c.repo.GetNotifiedMap(ctx)
	if err != nil {
		if errors.Is(err, store.ErrCorruptValue) {
			c.logger.Warn("discarding corrupt notified cache", "error", err)
		} else {
			c.logger.Warn("reading notified cache", "error", err)
		}
		return map[string]time.Time{}
	}

	cleaned := make(map[string]time.Time, len(stored))
	for id, ts := range stored {
		if now.Sub(ts) < c.dedupWindow {
			cleaned[id] = ts
		}
	}
	return cleaned
}
