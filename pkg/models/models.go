package models

import "time"

// Session represents one tracked focus interval. A session is created open
// (IsActive=true, no EndTime) when the timer starts and closed with a final
// duration when the user completes it.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Completed reports whether the session has been closed with a recorded
// duration and is therefore eligible for statistics.
func (s Session) Completed() bool {
	return s.EndTime != nil && !s.IsActive
}

// User is an account known to the session store.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
