// Package tui renders the focustrack terminal UI: a timer tab driven by the
// state machine, statistics and activity views derived by the aggregator,
// the session history, and the online-users panel.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/focustrack/focustrack/internal/stats"
	"github.com/focustrack/focustrack/internal/store"
	"github.com/focustrack/focustrack/internal/timer"
	"github.com/focustrack/focustrack/pkg/models"
)

type tab int

const (
	timerTab tab = iota
	statsTab
	sessionsTab
	communityTab
	tabCount
)

// presenceWindow is how recent a heartbeat must be to count as online, and
// presenceInterval how often we send our own.
const (
	presenceWindow   = 5 * time.Minute
	presenceInterval = 30 * time.Second
)

// Deps wires the model to the application services.
type Deps struct {
	Engine   *timer.Engine
	Sessions store.SessionStore
	Presence store.PresenceStore
	Stats    *stats.Aggregator
	User     *models.User
	Log      zerolog.Logger
}

type model struct {
	deps Deps
	ctx  context.Context

	currentTab tab
	width      int
	height     int
	ready      bool

	// tickGen invalidates in-flight tick messages after pause/reset.
	tickGen int

	sessions    []models.Session
	summary     stats.Summary
	calendar    []stats.DayActivity
	weekSeries  []stats.DayActivity
	monthSeries []stats.DayActivity
	loading     bool
	onlineCount int

	sessionsView viewport.Model

	statusLine string
	statusErr  bool
}

func initialModel(deps Deps) model {
	return model{
		deps:    deps,
		ctx:     context.Background(),
		loading: true,
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(deps Deps) error {
	p := tea.NewProgram(initialModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadSessionsCmd(), m.presenceCmd()}
	if m.deps.Engine.Status().State == timer.StateRunning {
		// A running snapshot was restored; the tick loop resumes
		// immediately.
		cmds = append(cmds, tickCmd(m.tickGen))
	}
	return tea.Batch(cmds...)
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func heartbeatCmd() tea.Cmd {
	return tea.Tick(presenceInterval, func(time.Time) tea.Msg {
		return heartbeatMsg{}
	})
}

func (m model) loadSessionsCmd() tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		sessions, err := deps.Sessions.ListSessions(ctx, deps.User.ID)
		if err != nil {
			return sessionsLoadedMsg{err: err}
		}
		total, err := deps.Sessions.TotalMinutes(ctx, deps.User.ID)
		if err != nil {
			// The aggregate is a nicety; fall back to summing locally.
			deps.Log.Warn().Err(err).Msg("total-minutes aggregate unavailable, using client-side sum")
			return sessionsLoadedMsg{sessions: sessions}
		}
		return sessionsLoadedMsg{sessions: sessions, total: total, aggregateOK: true}
	}
}

func (m model) presenceCmd() tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		if err := deps.Presence.Heartbeat(ctx, deps.User.ID); err != nil {
			return presenceMsg{err: err}
		}
		count, err := deps.Presence.OnlineCount(ctx, presenceWindow)
		return presenceMsg{count: count, err: err}
	}
}

func (m model) toggleCmd() tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		state, err := deps.Engine.Toggle(ctx)
		return toggleDoneMsg{state: state, err: err}
	}
}

func (m model) completeCmd() tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		minutes, err := deps.Engine.Complete(ctx)
		return completeDoneMsg{minutes: minutes, err: err}
	}
}

func (m model) resetCmd() tea.Cmd {
	deps := m.deps
	ctx := m.ctx
	return func() tea.Msg {
		deps.Engine.Reset(ctx)
		return resetDoneMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewHeight := msg.Height - 6
		if viewHeight < 3 {
			viewHeight = 3
		}
		if !m.ready {
			m.sessionsView = viewport.New(msg.Width-4, viewHeight)
			m.ready = true
		} else {
			m.sessionsView.Width = msg.Width - 4
			m.sessionsView.Height = viewHeight
		}
		m.refreshSessionsView()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if msg.gen != m.tickGen {
			// Stale tick from before a pause or reset.
			return m, nil
		}
		m.deps.Engine.Tick()
		return m, tickCmd(m.tickGen)

	case heartbeatMsg:
		return m, m.presenceCmd()

	case toggleDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.tickGen++
		switch msg.state {
		case timer.StateRunning:
			m.setInfo("Focus session running. Good luck!")
			// Starting may have created a session; refresh history.
			return m, tea.Batch(tickCmd(m.tickGen), m.loadSessionsCmd())
		case timer.StatePaused:
			m.setInfo("Timer paused. Take a break when you need it.")
		}
		return m, nil

	case completeDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.tickGen++
		m.setInfo(completedStatus(msg.minutes))
		return m, m.loadSessionsCmd()

	case resetDoneMsg:
		m.tickGen++
		m.setInfo("Timer reset to zero.")
		return m, nil

	case sessionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.sessions = msg.sessions
		m.recomputeStats(msg.total, msg.aggregateOK)
		m.refreshSessionsView()
		return m, nil

	case presenceMsg:
		if msg.err != nil {
			// Presence is advisory; log and try again next interval.
			m.deps.Log.Warn().Err(msg.err).Msg("presence refresh failed")
		} else {
			m.onlineCount = msg.count
		}
		return m, heartbeatCmd()
	}

	var cmd tea.Cmd
	m.sessionsView, cmd = m.sessionsView.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab", "right", "l":
		m.currentTab = (m.currentTab + 1) % tabCount
		return m, nil

	case "shift+tab", "left", "h":
		m.currentTab = (m.currentTab + tabCount - 1) % tabCount
		return m, nil

	case "1":
		m.currentTab = timerTab
		return m, nil
	case "2":
		m.currentTab = statsTab
		return m, nil
	case "3":
		m.currentTab = sessionsTab
		return m, nil
	case "4":
		m.currentTab = communityTab
		return m, nil

	case " ", "s":
		return m, m.toggleCmd()

	case "c":
		return m, m.completeCmd()

	case "r":
		return m, m.resetCmd()

	case "R":
		m.loading = true
		return m, m.loadSessionsCmd()
	}

	if m.currentTab == sessionsTab {
		var cmd tea.Cmd
		m.sessionsView, cmd = m.sessionsView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) recomputeStats(total int, aggregateOK bool) {
	now := time.Now()
	m.summary = m.deps.Stats.Summarize(m.sessions, now)
	if aggregateOK {
		m.summary.TotalMinutes = total
	}
	m.calendar = m.deps.Stats.Calendar(m.sessions, now)
	m.weekSeries = m.deps.Stats.DailyTotals(m.sessions, 7, now)
	m.monthSeries = m.deps.Stats.DailyTotals(m.sessions, 30, now)
}

func (m *model) refreshSessionsView() {
	if !m.ready {
		return
	}
	m.sessionsView.SetContent(m.renderSessionList())
}

func (m *model) setError(err error) {
	m.deps.Log.Error().Err(err).Msg("operation failed")
	m.statusLine = err.Error()
	m.statusErr = true
}

func (m *model) setInfo(line string) {
	m.statusLine = line
	m.statusErr = false
}
