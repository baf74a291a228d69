package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/focustrack/focustrack/pkg/models"
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path, applies PRAGMAs, and
// runs migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS timer_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			start_time INTEGER NOT NULL,
			end_time INTEGER,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_created
			ON timer_sessions(user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS online_users (
			user_id TEXT PRIMARY KEY REFERENCES users(id),
			last_seen_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: now,
		IsActive:  true,
		CreatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timer_sessions (id, user_id, start_time, end_time, duration_minutes, is_active, created_at)
		VALUES (?, ?, ?, NULL, 0, 1, ?)`,
		sess.ID, sess.UserID, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID, userID string, durationMinutes int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE timer_sessions
		SET end_time = ?, duration_minutes = ?, is_active = 0
		WHERE id = ? AND user_id = ?`,
		time.Now().Unix(), durationMinutes, sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_time, end_time, duration_minutes, is_active, created_at
		FROM timer_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var res []models.Session
	for rows.Next() {
		var (
			sess      models.Session
			start     int64
			end       sql.NullInt64
			activeInt int
			created   int64
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &start, &end, &sess.DurationMinutes, &activeInt, &created); err != nil {
			return nil, err
		}
		sess.StartTime = time.Unix(start, 0)
		sess.CreatedAt = time.Unix(created, 0)
		sess.IsActive = activeInt != 0
		if end.Valid {
			t := time.Unix(end.Int64, 0)
			sess.EndTime = &t
		}
		res = append(res, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) TotalMinutes(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM timer_sessions
		WHERE user_id = ? AND end_time IS NOT NULL`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total minutes: %w", err)
	}
	return total, nil
}

// --- presence ---

func (s *SQLiteStore) Heartbeat(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO online_users (user_id, last_seen_at)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		userID, time.Now().Unix(),
	)
	return err
}

func (s *SQLiteStore) OnlineCount(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window).Unix()
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM online_users WHERE last_seen_at >= ?`, cutoff,
	).Scan(&count)
	return count, err
}

// --- users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	now := time.Now()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, passwordHash, u.FullName, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var (
		u       models.User
		hash    string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, full_name, created_at
		FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Email, &hash, &u.FullName, &created)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	u.CreatedAt = time.Unix(created, 0)
	return &u, hash, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	var (
		u       models.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, created_at
		FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Email, &u.FullName, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}
