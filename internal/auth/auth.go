// Package auth implements the identity provider the rest of the app depends
// on: register, sign in, sign out, and a resolved current user. Accounts are
// rows in the session store; the logged-in user id persists in a file so a
// login survives restarts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/focustrack/focustrack/internal/store"
	"github.com/focustrack/focustrack/pkg/models"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrNotSignedIn        = errors.New("auth: not signed in")
)

// Provider is the identity surface consumed by commands and the TUI.
type Provider interface {
	SignUp(ctx context.Context, email, password, fullName string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	// CurrentUser resolves the signed-in account, or ErrNotSignedIn.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Local authenticates against the user table of the local store and keeps
// the signed-in user id in sessionPath.
type Local struct {
	users       store.UserStore
	sessionPath string
}

func NewLocal(users store.UserStore, sessionPath string) *Local {
	return &Local{users: users, sessionPath: sessionPath}
}

func (l *Local) SignUp(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := l.users.CreateUser(ctx, email, string(hash), fullName)
	if errors.Is(err, store.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if err := l.writeSession(u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, hash, err := l.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := l.writeSession(u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (l *Local) SignOut(context.Context) error {
	err := os.Remove(l.sessionPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Local) CurrentUser(ctx context.Context) (*models.User, error) {
	data, err := os.ReadFile(l.sessionPath)
	if os.IsNotExist(err) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, ErrNotSignedIn
	}

	u, err := l.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Login file references a deleted account; treat as signed out.
		_ = os.Remove(l.sessionPath)
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (l *Local) writeSession(userID string) error {
	if err := os.MkdirAll(filepath.Dir(l.sessionPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.sessionPath, []byte(userID+"\n"), 0o600)
}
