package tui

import (
	"github.com/focustrack/focustrack/internal/timer"
	"github.com/focustrack/focustrack/pkg/models"
)

// tickMsg advances the running timer by one second. The generation tag lets
// the model drop ticks scheduled before a pause/reset so overlapping fires
// can never double-increment.
type tickMsg struct {
	gen int
}

// heartbeatMsg fires the periodic presence refresh.
type heartbeatMsg struct{}

// toggleDoneMsg reports the outcome of a start/pause/resume transition.
type toggleDoneMsg struct {
	state timer.State
	err   error
}

// completeDoneMsg reports the outcome of completing a session.
type completeDoneMsg struct {
	minutes int
	err     error
}

// resetDoneMsg reports that a reset finished.
type resetDoneMsg struct{}

// sessionsLoadedMsg delivers the refreshed session list and the store's
// all-time aggregate. aggregateOK is false when the aggregate call failed
// and the client-side sum should be used instead.
type sessionsLoadedMsg struct {
	sessions    []models.Session
	total       int
	aggregateOK bool
	err         error
}

// presenceMsg delivers the online-user count.
type presenceMsg struct {
	count int
	err   error
}
