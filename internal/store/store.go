// Package store defines the session store contract and its local (SQLite)
// and remote (HTTP) implementations. The timer state machine and statistics
// aggregator speak only through these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/focustrack/focustrack/pkg/models"
)

var (
	// ErrNotFound is returned when a session or user does not exist or is
	// not visible to the requesting user.
	ErrNotFound = errors.New("store: not found")
	// ErrEmailTaken is returned by CreateUser for a duplicate email.
	ErrEmailTaken = errors.New("store: email already registered")
)

// SessionStore is the Session Store Client contract consumed by the timer
// core. Implementations must not retry failed calls; every failure is
// terminal for that attempt.
type SessionStore interface {
	// CreateSession inserts an open session row for userID with
	// StartTime=now and IsActive=true, returning the stored record.
	CreateSession(ctx context.Context, userID string) (*models.Session, error)

	// CloseSession sets EndTime=now, the final duration, and
	// IsActive=false on the session, scoped to the owning user.
	CloseSession(ctx context.Context, sessionID, userID string, durationMinutes int) error

	// ListSessions returns all of the user's sessions, open and closed,
	// newest first.
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)

	// TotalMinutes returns the store-computed all-time total over closed
	// sessions.
	TotalMinutes(ctx context.Context, userID string) (int, error)
}

// PresenceStore is the consumption contract for the "who else is online"
// panel. Presence is advisory; failures here never affect timer state.
type PresenceStore interface {
	// Heartbeat marks the user as online now.
	Heartbeat(ctx context.Context, userID string) error

	// OnlineCount counts users whose last heartbeat falls within window.
	OnlineCount(ctx context.Context, window time.Duration) (int, error)
}

// UserStore holds account rows backing the local identity provider.
type UserStore interface {
	// CreateUser inserts an account with a pre-hashed password.
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)

	// UserByEmail returns the account and its password hash, or
	// ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, string, error)

	// UserByID returns the account, or ErrNotFound.
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is the full surface a backend provides.
type Store interface {
	SessionStore
	PresenceStore
	UserStore

	Close() error
}
