package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
)

func withConfig(t *testing.T, c *model.AppConfig) {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
}

func telegramConfig(chatID int64) *model.AppConfig {
	return &model.AppConfig{Notify: model.NotifyConfig{
		Platform: model.PlatformTelegram,
		Telegram: model.TelegramConfig{Token: "123:abc", ChatID: chatID},
	}}
}

func TestNewPlatform_TelegramReusesStoredGrant(t *testing.T) {
	withConfig(t, telegramConfig(42))
	ctx := context.Background()
	st := store.NewMemoryStore()

	p, err := newPlatform(st)
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionDefault, p.Permission())

	require.NoError(t, st.SetNotificationPermission(ctx, "telegram-42", string(notify.PermissionGranted)))

	p, err = newPlatform(st)
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionGranted, p.Permission())
	assert.Equal(t, notify.PermissionGranted, ensurePermission(ctx, p, st))
}

func TestEnsurePermission_DismissedPromptOnlyBlocksTerminal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.SetPromptDismissed(ctx, true))

	// Without a chat the consent flow fails, which shows it was reached.
	withConfig(t, telegramConfig(0))
	p, err := newPlatform(st)
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionDenied, ensurePermission(ctx, p, st))

	withConfig(t, &model.AppConfig{Notify: model.NotifyConfig{Platform: model.PlatformTerminal}})
	p, err = newPlatform(st)
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionDefault, ensurePermission(ctx, p, st))
}

func TestNewPlatform_Unknown(t *testing.T) {
	withConfig(t, &model.AppConfig{Notify: model.NotifyConfig{Platform: "pager"}})
	_, err := newPlatform(store.NewMemoryStore())
	assert.Error(t, err)
}
