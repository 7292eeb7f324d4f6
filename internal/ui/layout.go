package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evaltracker/internal/theme"
)

// Layout tracks the terminal size and the fixed rows around the content.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	// BannerHeight is non-zero while the urgent banner is shown.
	BannerHeight int
}

// NewLayout creates a Layout with one-row header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight - l.BannerHeight
	if h < 0 {
		return 0
	}
	return h
}

// fill pads rendered to the full width using style's background.
func (l Layout) fill(style lipgloss.Style, rendered string) string {
	gap := l.Width - lipgloss.Width(rendered)
	if gap <= 0 {
		return rendered
	}
	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderHeader renders the title on the left and status on the right.
func (l Layout) RenderHeader(title, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.Align(lipgloss.Right).Render(status)

	gap := l.Width - lipgloss.Width(titleRendered) - lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderBanner renders a full-width alert row.
func (l Layout) RenderBanner(text string) string {
	return l.fill(theme.BannerStyle, theme.BannerStyle.Render(text))
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints))
}

// RenderWithFrame joins the non-empty sections top to bottom.
func (l Layout) RenderWithFrame(sections ...string) string {
	var parts []string
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
