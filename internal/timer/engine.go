// Package timer implements the focus-timer state machine: it owns elapsed
// time for the current session, persists it across restarts, and drives
// session records in the store at start/complete boundaries. Seconds advance
// purely locally; the store is only consulted when a session opens or closes.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/focustrack/focustrack/internal/clock"
	"github.com/focustrack/focustrack/internal/store"
)

// State is the timer's position in its lifecycle.
type State int

const (
	// StateIdle: no open session; the next toggle starts one.
	StateIdle State = iota
	// StateRunning: open session, ticks advance elapsed seconds.
	StateRunning
	// StatePaused: open session retained, ticks frozen.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

var (
	// ErrNothingToComplete is returned by Complete when no time has been
	// tracked or no session is open; the state machine is unchanged.
	ErrNothingToComplete = errors.New("timer: nothing to complete")
	// ErrStartPending is returned by Toggle while a session-create call is
	// still in flight.
	ErrStartPending = errors.New("timer: session start already in flight")
)

// Status is a read-only view of the engine for presentation.
type Status struct {
	State     State
	Seconds   int
	SessionID string
}

// Options tune engine behavior.
type Options struct {
	// CloseOnReset closes the open session record (with zero duration)
	// when the timer is reset, instead of leaving it active in the store.
	CloseOnReset bool
}

// Engine is the timer state machine. All methods are safe for concurrent
// use; store calls happen outside the state lock so ticks are never blocked
// by network latency.
type Engine struct {
	sessions store.SessionStore
	snaps    SnapshotStore
	clk      clock.Clock
	log      zerolog.Logger
	opts     Options

	userID string

	mu        sync.Mutex
	isWorking bool
	seconds   int
	sessionID string
	starting  bool
	// gen invalidates in-flight store results after a local transition;
	// a result that comes back under a different generation is discarded.
	gen uint64
}

func NewEngine(sessions store.SessionStore, snaps SnapshotStore, clk clock.Clock, log zerolog.Logger, userID string, opts Options) *Engine {
	return &Engine{
		sessions: sessions,
		snaps:    snaps,
		clk:      clk,
		log:      log,
		opts:     opts,
		userID:   userID,
	}
}

// Restore loads the persisted snapshot, if any. A snapshot saved while
// running is resumed with catch-up: seconds elapsed since it was saved count
// toward the session. A paused or idle snapshot is restored exactly. A
// corrupt snapshot is logged and ignored.
func (e *Engine) Restore() {
	snap, err := e.snaps.Load()
	if err != nil {
		e.log.Warn().Err(err).Msg("discarding unreadable timer snapshot")
		_ = e.snaps.Clear()
		return
	}
	if snap == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.seconds = snap.Seconds
	e.sessionID = snap.CurrentSessionID

	if snap.IsWorking && snap.CurrentSessionID != "" {
		catchUp := int(e.clk.Now().Sub(snap.SavedAt).Seconds())
		if catchUp < 0 {
			catchUp = 0
		}
		e.isWorking = true
		e.seconds = snap.Seconds + catchUp
		e.log.Info().
			Str("session_id", e.sessionID).
			Int("catch_up_seconds", catchUp).
			Msg("resumed running timer from snapshot")
	} else {
		e.isWorking = false
	}

	e.persistLocked()
}

// Status returns the current state, elapsed seconds, and open session id.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{State: e.stateLocked(), Seconds: e.seconds, SessionID: e.sessionID}
}

func (e *Engine) stateLocked() State {
	switch {
	case e.isWorking:
		return StateRunning
	case e.sessionID != "":
		return StatePaused
	default:
		return StateIdle
	}
}

// Tick advances elapsed time by one second. Calls while not running are
// ignored, so a straggling tick delivered after a pause cannot advance the
// clock.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isWorking {
		return
	}
	e.seconds++
	e.persistLocked()
}

// Toggle moves Idle→Running (opening a session in the store),
// Running→Paused, or Paused→Running. If session creation fails the timer
// stays Idle and the error is returned; no session is fabricated locally.
func (e *Engine) Toggle(ctx context.Context) (State, error) {
	e.mu.Lock()

	switch e.stateLocked() {
	case StateRunning:
		e.isWorking = false
		e.persistLocked()
		state := e.stateLocked()
		e.mu.Unlock()
		return state, nil

	case StatePaused:
		e.isWorking = true
		e.persistLocked()
		state := e.stateLocked()
		e.mu.Unlock()
		return state, nil
	}

	// Idle: open a session remotely before anything moves locally.
	if e.starting {
		e.mu.Unlock()
		return StateIdle, ErrStartPending
	}
	e.starting = true
	gen := e.gen
	e.mu.Unlock()

	sess, err := e.sessions.CreateSession(ctx, e.userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.starting = false

	if gen != e.gen {
		// The timer was reset (or otherwise moved on) while the create
		// was in flight; drop the result.
		if err == nil {
			e.log.Warn().Str("session_id", sess.ID).Msg("discarding stale session create result")
		}
		return e.stateLocked(), nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("start session: %w", err)
	}

	e.sessionID = sess.ID
	e.seconds = 0
	e.isWorking = true
	e.persistLocked()
	e.log.Info().Str("session_id", sess.ID).Msg("session started")
	return StateRunning, nil
}

// Complete closes the open session with the elapsed whole minutes and
// returns the timer to Idle. With no open session or no tracked time it is a
// no-op returning ErrNothingToComplete. If the store call fails, state is
// unchanged so no elapsed time is lost.
func (e *Engine) Complete(ctx context.Context) (int, error) {
	e.mu.Lock()
	if e.sessionID == "" || e.seconds == 0 {
		e.mu.Unlock()
		return 0, ErrNothingToComplete
	}
	sessionID := e.sessionID
	minutes := e.seconds / 60
	e.mu.Unlock()

	err := e.sessions.CloseSession(ctx, sessionID, e.userID, minutes)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID != sessionID {
		// Reset raced the close; the local state already moved on.
		e.log.Warn().Str("session_id", sessionID).Msg("discarding stale session close result")
		return minutes, nil
	}
	if err != nil {
		return 0, fmt.Errorf("complete session: %w", err)
	}

	e.clearLocked()
	e.log.Info().Str("session_id", sessionID).Int("duration_minutes", minutes).Msg("session completed")
	return minutes, nil
}

// Reset discards elapsed time and the local session reference and erases
// the snapshot. The store record is left open unless CloseOnReset is set, in
// which case it is closed best-effort with zero duration.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	sessionID := e.sessionID
	e.clearLocked()
	e.mu.Unlock()

	if sessionID == "" {
		return
	}
	if !e.opts.CloseOnReset {
		// Historical behavior: the record stays active in the store.
		e.log.Info().Str("session_id", sessionID).Msg("timer reset, session record left open")
		return
	}
	if err := e.sessions.CloseSession(ctx, sessionID, e.userID, 0); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("close-on-reset failed, session record left open")
		return
	}
	e.log.Info().Str("session_id", sessionID).Msg("timer reset, session record closed")
}

// clearLocked returns the machine to Idle and erases the snapshot. Bumping
// gen invalidates any store result still in flight.
func (e *Engine) clearLocked() {
	e.isWorking = false
	e.seconds = 0
	e.sessionID = ""
	e.gen++
	if err := e.snaps.Clear(); err != nil {
		e.log.Warn().Err(err).Msg("clear timer snapshot")
	}
}

func (e *Engine) persistLocked() {
	snap := Snapshot{
		IsWorking:        e.isWorking,
		Seconds:          e.seconds,
		CurrentSessionID: e.sessionID,
		SavedAt:          e.clk.Now(),
	}
	if err := e.snaps.Save(snap); err != nil {
		e.log.Warn().Err(err).Msg("persist timer snapshot")
	}
}
