package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
)

type fakeSender struct {
	nextID  int
	sent    []tgbotapi.MessageConfig
	deleted []int
	sendErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		f.deleted = append(f.deleted, d.MessageID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func dialer(s *fakeSender) func(string) (Sender, error) {
	return func(string) (Sender, error) { return s, nil }
}

func TestPlatform_PermissionStates(t *testing.T) {
	prefs := store.NewMemoryStore()
	assert.Equal(t, notify.PermissionUnsupported, New("", 1, prefs).Permission())
	assert.Equal(t, notify.PermissionDefault, New("token", 1, prefs).Permission())
	assert.Equal(t, notify.PermissionDefault, New("token", 0, prefs).Permission())
}

func TestPlatform_RequestPermission(t *testing.T) {
	prefs := store.NewMemoryStore()
	p := New("token", 42, prefs)
	p.dial = dialer(&fakeSender{})

	assert.Equal(t, notify.PermissionGranted, notify.RequestPermission(context.Background(), p))
	assert.Equal(t, notify.PermissionGranted, p.Permission())

	stored, err := prefs.NotificationPermission(context.Background(), "telegram-42")
	require.NoError(t, err)
	assert.Equal(t, "granted", stored)
}

func TestPlatform_GrantSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	prefs := store.NewMemoryStore()

	first := New("token", 42, prefs)
	first.dial = dialer(&fakeSender{})
	require.Equal(t, notify.PermissionGranted, notify.RequestPermission(ctx, first))

	s := &fakeSender{}
	dials := 0
	second := New("token", 42, prefs)
	second.dial = func(string) (Sender, error) {
		dials++
		return s, nil
	}
	assert.Equal(t, notify.PermissionGranted, second.Permission())

	_, err := second.Show(ctx, notify.Notification{Title: "⚠️ Midterm", Tag: "eval-e1"})
	require.NoError(t, err)
	_, err = second.Show(ctx, notify.Notification{Title: "⚠️ Final", Tag: "eval-e2"})
	require.NoError(t, err)
	assert.Len(t, s.sent, 2)
	assert.Equal(t, 1, dials)
}

func TestPlatform_GrantIsPerChat(t *testing.T) {
	prefs := store.NewMemoryStore()
	require.NoError(t, prefs.SetNotificationPermission(context.Background(), "telegram-42", "granted"))
	require.NoError(t, prefs.SetNotificationPermission(context.Background(), "terminal", "granted"))

	assert.Equal(t, notify.PermissionDefault, New("token", 7, prefs).Permission())
	assert.Equal(t, notify.PermissionGranted, New("token", 42, prefs).Permission())
}

func TestPlatform_RequestPermissionBadToken(t *testing.T) {
	prefs := store.NewMemoryStore()
	p := New("bad", 42, prefs)
	p.dial = func(string) (Sender, error) { return nil, errors.New("Unauthorized") }

	assert.Equal(t, notify.PermissionDenied, notify.RequestPermission(context.Background(), p))
	assert.Equal(t, notify.PermissionDenied, p.Permission())

	// Denial is not recorded; a fixed token can be tried in a new process.
	assert.Equal(t, notify.PermissionDefault, New("good", 42, prefs).Permission())
}

func TestPlatform_RequestPermissionNoChat(t *testing.T) {
	p := New("token", 0, store.NewMemoryStore())
	perm, err := p.RequestPermission(context.Background())
	assert.ErrorIs(t, err, ErrNoChat)
	assert.Equal(t, notify.PermissionDefault, perm)
	assert.Equal(t, notify.PermissionDefault, p.Permission())
}

func TestPlatform_ShowEscapesAndCollapses(t *testing.T) {
	s := &fakeSender{}
	p := NewWithSender(s, 42)

	n := notify.Notification{Title: "⚠️ Midterm", Body: "Calculus — Entrega hoy a las 14:00. Quedan 5h", Tag: "eval-e1"}
	_, err := p.Show(context.Background(), n)
	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(42), s.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, s.sent[0].ParseMode)
	assert.Contains(t, s.sent[0].Text, `14:00\. Quedan 5h`)

	_, err = p.Show(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.deleted)
}

func TestPlatform_CloseDeletesOnce(t *testing.T) {
	s := &fakeSender{}
	p := NewWithSender(s, 42)

	h, err := p.Show(context.Background(), notify.Notification{Title: "x", Tag: "eval-e1"})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, []int{1}, s.deleted)
}

func TestPlatform_ShowError(t *testing.T) {
	s := &fakeSender{sendErr: errors.New("network down")}
	p := NewWithSender(s, 42)

	_, err := p.Show(context.Background(), notify.Notification{Title: "x"})
	assert.Error(t, err)
}

func TestPlatform_ShowNotGranted(t *testing.T) {
	_, err := New("token", 42, store.NewMemoryStore()).Show(context.Background(), notify.Notification{Title: "x"})
	assert.ErrorIs(t, err, notify.ErrNotPermitted)
}
