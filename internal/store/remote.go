package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/focustrack/focustrack/pkg/models"
)

// RemoteStore speaks the hosted backend's REST API. It implements
// SessionStore and PresenceStore; account management lives on the backend
// and is out of scope here, the configured token identifies the account.
type RemoteStore struct {
	client *resty.Client
}

// NewRemote builds a client for the backend at baseURL authenticated by
// token. Calls are never retried; a failed call is terminal for that attempt.
func NewRemote(baseURL, token string) *RemoteStore {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)
	return &RemoteStore{client: c}
}

type apiError struct {
	Message string `json:"message"`
}

func statusErr(op string, resp *resty.Response) error {
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if e, ok := resp.Error().(*apiError); ok && e != nil && e.Message != "" {
		return fmt.Errorf("%s: %s (status %d)", op, e.Message, resp.StatusCode())
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode())
}

func (r *RemoteStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	var sess models.Session
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"user_id": userID}).
		SetResult(&sess).
		SetError(&apiError{}).
		Post("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if resp.IsError() {
		return nil, statusErr("create session", resp)
	}
	return &sess, nil
}

func (r *RemoteStore) CloseSession(ctx context.Context, sessionID, userID string, durationMinutes int) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"user_id":          userID,
			"duration_minutes": durationMinutes,
		}).
		SetError(&apiError{}).
		Post("/v1/sessions/" + sessionID + "/close")
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if resp.IsError() {
		return statusErr("close session", resp)
	}
	return nil
}

func (r *RemoteStore) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&sessions).
		SetError(&apiError{}).
		Get("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if resp.IsError() {
		return nil, statusErr("list sessions", resp)
	}
	return sessions, nil
}

func (r *RemoteStore) TotalMinutes(ctx context.Context, userID string) (int, error) {
	var out struct {
		TotalMinutes int `json:"total_minutes"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/v1/users/" + userID + "/total-minutes")
	if err != nil {
		return 0, fmt.Errorf("total minutes: %w", err)
	}
	if resp.IsError() {
		return 0, statusErr("total minutes", resp)
	}
	return out.TotalMinutes, nil
}

func (r *RemoteStore) Heartbeat(ctx context.Context, userID string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"user_id": userID}).
		SetError(&apiError{}).
		Post("/v1/presence/heartbeat")
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	if resp.IsError() {
		return statusErr("heartbeat", resp)
	}
	return nil
}

func (r *RemoteStore) OnlineCount(ctx context.Context, window time.Duration) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("window_seconds", fmt.Sprintf("%d", int(window.Seconds()))).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/v1/presence/online")
	if err != nil {
		return 0, fmt.Errorf("online count: %w", err)
	}
	if resp.IsError() {
		return 0, statusErr("online count", resp)
	}
	return out.Count, nil
}

// Me resolves the account the configured token belongs to.
func (r *RemoteStore) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&u).
		SetError(&apiError{}).
		Get("/v1/me")
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	if resp.IsError() {
		return nil, statusErr("me", resp)
	}
	return &u, nil
}
