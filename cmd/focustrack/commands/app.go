package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/focustrack/focustrack/internal/auth"
	"github.com/focustrack/focustrack/internal/config"
	"github.com/focustrack/focustrack/internal/logging"
	"github.com/focustrack/focustrack/internal/store"
	"github.com/focustrack/focustrack/pkg/models"
)

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	sessions store.SessionStore
	presence store.PresenceStore
	// provider is nil in remote mode, where the API token identifies the
	// account and sign-in happens on the backend.
	provider auth.Provider

	resolveUser func(context.Context) (*models.User, error)

	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".focustrack", "config.yaml")
}

// bootstrap loads config, opens the log file, and wires the configured
// store backend.
func bootstrap(ctx context.Context, configPath string) (*app, error) {
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logging.Open(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	switch cfg.Store.Mode {
	case "local":
		s, err := store.OpenSQLite(ctx, cfg.Store.DatabasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open store: %w", err)
		}
		provider := auth.NewLocal(s, cfg.SessionPath())
		a.sessions = s
		a.presence = s
		a.provider = provider
		a.resolveUser = provider.CurrentUser
		a.closers = append(a.closers, s)

	case "remote":
		if cfg.Store.RemoteURL == "" {
			a.Close()
			return nil, fmt.Errorf("store.remote_url is required in remote mode")
		}
		r := store.NewRemote(cfg.Store.RemoteURL, cfg.Store.APIToken)
		a.sessions = r
		a.presence = r
		a.resolveUser = r.Me

	default:
		a.Close()
		return nil, fmt.Errorf("unknown store mode %q (want local or remote)", cfg.Store.Mode)
	}

	return a, nil
}

// currentUser resolves the signed-in account with a sign-in hint when there
// is none.
func (a *app) currentUser(ctx context.Context) (*models.User, error) {
	u, err := a.resolveUser(ctx)
	if errors.Is(err, auth.ErrNotSignedIn) {
		return nil, fmt.Errorf("not signed in — run 'focustrack register' or 'focustrack login' first")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}
