// Package terminal shows notifications as styled banners on a terminal.
package terminal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
	"github.com/nhle/evaltracker/internal/theme"
)

// Name identifies the platform in the preference store.
const Name = "terminal"

// Prompter asks the user whether notifications may be shown.
type Prompter func(ctx context.Context) (bool, error)

// Platform writes notifications to an io.Writer. Consent is persisted in
// the preference store so a denial survives restarts.
type Platform struct {
	out    io.Writer
	prefs  store.PreferenceRepository
	prompt Prompter

	mu   sync.Mutex
	tags map[string]*handle
}

var _ notify.Platform = (*Platform)(nil)

// New creates a terminal platform. A nil prompt uses an interactive
// confirm form.
func New(out io.Writer, prefs store.PreferenceRepository, prompt Prompter) *Platform {
	if prompt == nil {
		prompt = confirmPrompt
	}
	return &Platform{
		out:    out,
		prefs:  prefs,
		prompt: prompt,
		tags:   make(map[string]*handle),
	}
}

// confirmPrompt runs a yes/no form on the controlling terminal.
func confirmPrompt(ctx context.Context) (bool, error) {
	var allow bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("¿Permitir recordatorios de evaluaciones?").
			Description("Se mostrará un aviso cuando una evaluación venza en menos de 24 horas.").
			Affirmative("Permitir").
			Negative("No").
			Value(&allow),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("running permission prompt: %w", err)
	}
	return allow, nil
}

func (p *Platform) Permission() notify.Permission {
	stored, err := p.prefs.NotificationPermission(context.Background(), Name)
	if err != nil {
		return notify.PermissionDefault
	}
	return notify.ParsePermission(stored)
}

func (p *Platform) RequestPermission(ctx context.Context) (notify.Permission, error) {
	allow, err := p.prompt(ctx)
	if err != nil {
		return notify.PermissionDenied, err
	}

	result := notify.PermissionDenied
	if allow {
		result = notify.PermissionGranted
	}
	if err := p.prefs.SetNotificationPermission(ctx, Name, string(result)); err != nil {
		return result, fmt.Errorf("saving permission: %w", err)
	}
	if result == notify.PermissionDenied {
		if err := p.prefs.SetPromptDismissed(ctx, true); err != nil {
			return result, fmt.Errorf("saving prompt dismissal: %w", err)
		}
	}
	return result, nil
}

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorOrange).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOrange)
	bodyStyle  = lipgloss.NewStyle().Foreground(theme.ColorWhite)
)

// Render formats n as a banner.
func Render(n notify.Notification) string {
	return bannerStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(n.Title),
			bodyStyle.Render(n.Body),
		),
	)
}

func (p *Platform) Show(_ context.Context, n notify.Notification) (notify.Handle, error) {
	if p.Permission() != notify.PermissionGranted {
		return nil, notify.ErrNotPermitted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if n.Tag != "" {
		if prev, ok := p.tags[n.Tag]; ok && !prev.isClosed() {
			// Same item is already on screen.
			return prev, nil
		}
	}

	if _, err := fmt.Fprintln(p.out, Render(n)); err != nil {
		return nil, fmt.Errorf("writing notification: %w", err)
	}

	h := &handle{platform: p, tag: n.Tag}
	if n.Tag != "" {
		p.tags[n.Tag] = h
	}
	return h, nil
}

// handle tracks a printed banner. Printed text cannot be erased, so Close
// only releases the collapse tag.
type handle struct {
	platform *Platform
	tag      string

	mu     sync.Mutex
	closed bool
}

func (h *handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.platform.mu.Lock()
	if cur, ok := h.platform.tags[h.tag]; ok && cur == h {
		delete(h.platform.tags, h.tag)
	}
	h.platform.mu.Unlock()
	return nil
}

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
