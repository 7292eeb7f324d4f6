// Package app is the interactive watch view: a live agenda with an alert
// banner fed by the reminder checker.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/keys"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/reminder"
	"github.com/nhle/evaltracker/internal/report"
	"github.com/nhle/evaltracker/internal/ui"
	helpview "github.com/nhle/evaltracker/internal/ui/help"
)

// requestTimeout bounds a single backend call made from the UI.
const requestTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAgenda ViewState = iota
	ViewHelp
)

// agendaLoadedMsg carries a freshly loaded agenda.
type agendaLoadedMsg struct {
	agenda *report.Agenda
	err    error
}

// urgentMsg carries the urgent evaluations found by a reminder cycle.
type urgentMsg struct {
	urgent []model.UrgentEvaluation
}

// completedMsg reports the outcome of marking an evaluation done.
type completedMsg struct {
	id  string
	err error
}

// Config wires the watch view to its collaborators.
type Config struct {
	Backend backend.Backend

	// Checker may be nil, in which case no alerts are raised.
	Checker *reminder.Checker

	UserID   string
	Email    string
	Location *time.Location
	Days     int
	Now      func() time.Time
}

// Model is the root Bubble Tea model of the watch view.
type Model struct {
	cfg      Config
	keys     *keys.KeyMap
	layout   ui.Layout
	helpView helpview.Model
	view     ViewState
	ready    bool

	agenda   *report.Agenda
	rows     []model.Evaluation
	cursor   int
	rangeIdx int
	subject  string
	loading  bool
	err      error

	urgent     []model.UrgentEvaluation
	showBanner bool
	urgentCh   chan []model.UrgentEvaluation
}

// New creates the watch model.
func New(cfg Config) Model {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	k := keys.DefaultKeyMap()
	m := Model{
		cfg:      cfg,
		keys:     k,
		helpView: helpview.New(k, 80, 24),
		layout:   ui.NewLayout(80, 24),
		urgentCh: make(chan []model.UrgentEvaluation, 1),
		loading:  true,
	}
	for i, d := range report.AgendaRanges {
		if d == cfg.Days {
			m.rangeIdx = i
		}
	}
	return m
}

// Init loads the agenda and starts the reminder checker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadAgenda(),
		m.startChecker(),
		m.waitForUrgent(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		banner := m.layout.BannerHeight
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.layout.BannerHeight = banner
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.ready = true
		return m, nil

	case agendaLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.agenda = msg.agenda
		var rows []model.Evaluation
		for _, d := range msg.agenda.Days {
			rows = append(rows, d.Evaluations...)
		}
		m.rows = rows
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		return m, nil

	case urgentMsg:
		m.urgent = msg.urgent
		m.showBanner = len(msg.urgent) > 0
		m.setBanner()
		// The checker may have seen changes the agenda has not.
		return m, tea.Batch(m.waitForUrgent(), m.loadAgenda())

	case completedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.loadAgenda()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cfg.Checker != nil {
			m.cfg.Checker.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.view == ViewHelp {
			m.view = ViewAgenda
		} else {
			m.view = ViewHelp
		}
		return m, nil
	}

	if m.view == ViewHelp {
		if key.Matches(msg, m.keys.Dismiss) {
			m.view = ViewAgenda
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Dismiss):
		m.showBanner = false
		m.setBanner()
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadAgenda()
	case key.Matches(msg, m.keys.CycleRange):
		m.rangeIdx = (m.rangeIdx + 1) % len(report.AgendaRanges)
		m.loading = true
		return m, m.loadAgenda()
	case key.Matches(msg, m.keys.CycleSubject):
		m.subject = m.nextSubject()
		m.cursor = 0
		m.loading = true
		return m, m.loadAgenda()
	case key.Matches(msg, m.keys.Complete):
		if e, ok := m.selected(); ok {
			return m, m.complete(e.ID)
		}
	}
	return m, nil
}

func (m *Model) setBanner() {
	if m.showBanner {
		m.layout.BannerHeight = 1
	} else {
		m.layout.BannerHeight = 0
	}
	m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
}

func (m Model) selected() (model.Evaluation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Evaluation{}, false
	}
	return m.rows[m.cursor], true
}

// nextSubject cycles "" -> subjects by name -> "".
func (m Model) nextSubject() string {
	if m.agenda == nil || len(m.agenda.Subjects) == 0 {
		return ""
	}
	subjects := make([]model.Subject, 0, len(m.agenda.Subjects))
	for _, s := range m.agenda.Subjects {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return strings.ToLower(subjects[i].Name) < strings.ToLower(subjects[j].Name)
	})

	if m.subject == "" {
		return subjects[0].ID
	}
	for i, s := range subjects {
		if s.ID == m.subject && i+1 < len(subjects) {
			return subjects[i+1].ID
		}
	}
	return ""
}

func (m Model) days() int {
	return report.AgendaRanges[m.rangeIdx]
}

func (m Model) loadAgenda() tea.Cmd {
	b, userID := m.cfg.Backend, m.cfg.UserID
	opts := report.AgendaOptions{
		Now:       m.cfg.Now(),
		Days:      m.days(),
		Location:  m.cfg.Location,
		SubjectID: m.subject,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		a, err := report.LoadAgenda(ctx, b, userID, opts)
		return agendaLoadedMsg{agenda: a, err: err}
	}
}

func (m Model) complete(id string) tea.Cmd {
	b := m.cfg.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return completedMsg{id: id, err: b.SetCompleted(ctx, id, true)}
	}
}

// startChecker hands the checker a callback that feeds urgentCh. Results
// arriving while one is still unread replace it.
func (m Model) startChecker() tea.Cmd {
	c, userID, ch := m.cfg.Checker, m.cfg.UserID, m.urgentCh
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		c.Start(userID, func(urgent []model.UrgentEvaluation) {
			for {
				select {
				case ch <- urgent:
					return
				default:
				}
				select {
				case <-ch:
				default:
				}
			}
		})
		return nil
	}
}

// waitForUrgent blocks until the checker reports urgent evaluations.
func (m Model) waitForUrgent() tea.Cmd {
	if m.cfg.Checker == nil {
		return nil
	}
	ch := m.urgentCh
	return func() tea.Msg {
		return urgentMsg{urgent: <-ch}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}

	header := m.layout.RenderHeader("evaltracker", m.headerStatus())

	var banner string
	if m.showBanner {
		banner = m.layout.RenderBanner(m.bannerText())
	}

	var content string
	switch m.view {
	case ViewHelp:
		content = m.helpView.View()
	default:
		content = m.renderAgenda()
	}

	return m.layout.RenderWithFrame(header, banner, content, m.layout.RenderStatusBar(m.statusText()))
}

func (m Model) headerStatus() string {
	parts := []string{fmt.Sprintf("próximos %d días", m.days())}
	if m.subject != "" && m.agenda != nil {
		if s, ok := m.agenda.Subjects[m.subject]; ok {
			parts = append(parts, s.Name)
		}
	}
	if m.cfg.Email != "" {
		parts = append(parts, m.cfg.Email)
	}
	return strings.Join(parts, " · ")
}

func (m Model) bannerText() string {
	if len(m.urgent) == 1 {
		u := m.urgent[0]
		return fmt.Sprintf("%s · %s", reminder.Title(u), reminder.Body(u))
	}
	titles := make([]string, 0, len(m.urgent))
	for _, u := range m.urgent {
		titles = append(titles, fmt.Sprintf("%s (%s)", u.Title, u.TimeStr))
	}
	return fmt.Sprintf("⚠️ %d evaluaciones vencen en menos de 24h: %s",
		len(m.urgent), strings.Join(titles, ", "))
}

func (m Model) statusText() string {
	switch {
	case m.err != nil:
		return "error: " + m.err.Error()
	case m.loading:
		return "actualizando..."
	default:
		return m.helpView.ShortView()
	}
}
