package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/focustrack/focustrack/internal/format"
	"github.com/focustrack/focustrack/internal/stats"
	"github.com/focustrack/focustrack/internal/timer"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))

	// Green ramp for the activity heatmap, index = intensity level.
	heatColors = []string{"238", "22", "28", "34", "46"}
)

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar())
	b.WriteString("\n\n")

	switch m.currentTab {
	case timerTab:
		b.WriteString(m.renderTimer())
	case statsTab:
		b.WriteString(m.renderStats())
	case sessionsTab:
		b.WriteString(headerStyle.Render("Session history") + "\n")
		b.WriteString(m.sessionsView.View())
	case communityTab:
		b.WriteString(m.renderCommunity())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m model) renderTabBar() string {
	names := []string{"1 Timer", "2 Stats", "3 Sessions", "4 Community"}
	parts := make([]string, len(names))
	for i, name := range names {
		if tab(i) == m.currentTab {
			parts[i] = accentStyle.Render("[" + name + "]")
		} else {
			parts[i] = dimStyle.Render(" " + name + " ")
		}
	}
	user := dimStyle.Render(m.deps.User.Email)
	return strings.Join(parts, " ") + "  " + user
}

func (m model) renderTimer() string {
	st := m.deps.Engine.Status()

	var b strings.Builder
	b.WriteString(clockStyle.Render(format.Clock(st.Seconds)))
	b.WriteString("\n\n")

	switch st.State {
	case timer.StateRunning:
		b.WriteString(okStyle.Render("● working"))
	case timer.StatePaused:
		b.WriteString(accentStyle.Render("‖ paused"))
	default:
		b.WriteString(dimStyle.Render("○ idle"))
	}
	b.WriteString("\n")

	if st.SessionID != "" {
		b.WriteString(dimStyle.Render("session " + truncate(st.SessionID, 12)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("today %s · week %s · all time %s",
		format.Minutes(m.summary.TodayMinutes),
		format.Minutes(m.summary.WeekMinutes),
		format.Minutes(m.summary.TotalMinutes))))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("space start/pause · c complete · r reset"))
	return b.String()
}

func (m model) renderStats() string {
	s := m.summary

	var b strings.Builder
	b.WriteString(headerStyle.Render("Statistics") + "\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Today", format.Minutes(s.TodayMinutes)},
		{"This week", format.Minutes(s.WeekMinutes)},
		{"This month", format.Minutes(s.MonthMinutes)},
		{"All time", format.Minutes(s.TotalMinutes)},
		{"Sessions", fmt.Sprintf("%d", s.TotalSessions)},
		{"Average session", format.Minutes(s.AverageMinutes)},
		{"Longest session", format.Minutes(s.LongestMinutes)},
		{"Current streak", fmt.Sprintf("%d days", s.CurrentStreak)},
		{"Max streak", fmt.Sprintf("%d days", s.MaxStreak)},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-16s", r.label)),
			accentStyle.Render(r.value)))
	}

	b.WriteString("\n" + headerStyle.Render("Last 7 days") + "\n")
	b.WriteString(renderWeekBars(m.weekSeries))

	b.WriteString("\n" + headerStyle.Render("Last 30 days") + "\n")
	b.WriteString(renderDayStrip(m.monthSeries))

	b.WriteString("\n" + headerStyle.Render("Activity") + "\n")
	b.WriteString(renderHeatmap(m.calendar, m.width))
	return b.String()
}

// renderWeekBars draws a simple horizontal bar per day.
func renderWeekBars(days []stats.DayActivity) string {
	const barWidth = 30

	max := 0
	for _, d := range days {
		if d.Minutes > max {
			max = d.Minutes
		}
	}

	var b strings.Builder
	for _, d := range days {
		filled := 0
		if max > 0 {
			filled = d.Minutes * barWidth / max
		}
		bar := okStyle.Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("░", barWidth-filled))
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			dimStyle.Render(d.Date.Format("Mon 01-02")),
			bar,
			labelStyle.Render(format.Minutes(d.Minutes))))
	}
	return b.String()
}

// renderDayStrip draws one intensity-colored cell per day, oldest first.
func renderDayStrip(days []stats.DayActivity) string {
	var b strings.Builder
	for _, d := range days {
		level := stats.IntensityLevel(d.Minutes)
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(heatColors[level])).
			Render("■"))
	}
	b.WriteString("\n")
	return b.String()
}

// renderHeatmap draws the trailing activity calendar as week columns, seven
// rows deep, newest week on the right. Only as many weeks as fit the
// terminal are shown.
func renderHeatmap(cal []stats.DayActivity, width int) string {
	if len(cal) == 0 {
		return dimStyle.Render("no activity yet") + "\n"
	}

	weeks := (width - 6) / 2
	if weeks < 4 {
		weeks = 4
	}
	if weeks > len(cal)/7 {
		weeks = len(cal) / 7
	}
	window := cal[len(cal)-weeks*7:]

	var b strings.Builder
	for row := 0; row < 7; row++ {
		for col := 0; col < weeks; col++ {
			day := window[col*7+row]
			level := stats.IntensityLevel(day.Minutes)
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(heatColors[level])).
				Render("■")
			b.WriteString(cell + " ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderSessionList() string {
	if m.loading {
		return dimStyle.Render("loading sessions...")
	}
	if len(m.sessions) == 0 {
		return dimStyle.Render("no sessions yet — press space to start one")
	}

	var b strings.Builder
	for _, s := range m.sessions {
		when := s.CreatedAt.Format("2006-01-02 15:04")
		var detail string
		switch {
		case s.IsActive:
			detail = okStyle.Render("active")
		case s.Completed():
			detail = labelStyle.Render(format.Minutes(s.DurationMinutes))
		default:
			detail = dimStyle.Render("discarded")
		}
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			labelStyle.Render(when),
			detail,
			dimStyle.Render(truncate(s.ID, 12))))
	}
	return b.String()
}

func (m model) renderCommunity() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Community") + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		accentStyle.Render(fmt.Sprintf("%d", m.onlineCount)),
		labelStyle.Render("focused right now")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("presence refreshes every 30 seconds"))
	return b.String()
}

func (m model) renderStatusBar() string {
	if m.statusLine == "" {
		return dimStyle.Render("tab switch view · R refresh · q quit")
	}
	if m.statusErr {
		return errorStyle.Render("Error: " + m.statusLine)
	}
	return okStyle.Render(m.statusLine)
}

func completedStatus(minutes int) string {
	return fmt.Sprintf("Session saved. Great work! You focused for %d minutes.", minutes)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
