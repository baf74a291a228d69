// Package stats derives display statistics from the session list: bucketed
// minute totals, averages, day streaks, and the trailing-year activity
// calendar. Aggregation is pure and recomputed in full on every change;
// per-user session counts stay small enough that incremental updates would
// buy nothing.
package stats

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/focustrack/focustrack/pkg/models"
)

// CalendarDays is the trailing window of the activity calendar.
const CalendarDays = 365

// Summary holds the headline figures shown across the app.
type Summary struct {
	TodayMinutes int
	WeekMinutes  int
	MonthMinutes int
	// TotalMinutes is the client-side sum over completed sessions. The
	// store's server-computed aggregate is canonical when available; this
	// value is the documented fallback.
	TotalMinutes   int
	TotalSessions  int
	AverageMinutes int
	LongestMinutes int
	CurrentStreak  int
	MaxStreak      int
}

// DayActivity is one calendar-day bucket of the activity view.
type DayActivity struct {
	Date     time.Time
	Minutes  int
	Sessions int
}

// Aggregator computes statistics in a fixed timezone.
type Aggregator struct {
	loc *time.Location
	log zerolog.Logger
}

func New(loc *time.Location, log zerolog.Logger) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{loc: loc, log: log}
}

// completed filters to sessions eligible for aggregation: closed with a
// recorded duration and a usable creation date. A record with a missing
// date is logged and skipped rather than failing the whole computation.
func (a *Aggregator) completed(sessions []models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Completed() {
			continue
		}
		if s.CreatedAt.IsZero() {
			a.log.Warn().Str("session_id", s.ID).Msg("skipping session with missing creation date")
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summarize derives the headline figures as of now.
func (a *Aggregator) Summarize(sessions []models.Session, now time.Time) Summary {
	completed := a.completed(sessions)
	now = now.In(a.loc)

	var sum Summary
	weekStart := a.weekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	for _, s := range completed {
		created := s.CreatedAt.In(a.loc)
		d := s.DurationMinutes

		if sameDay(created, now) {
			sum.TodayMinutes += d
		}
		if !created.Before(weekStart) && created.Before(weekEnd) {
			sum.WeekMinutes += d
		}
		if created.Year() == now.Year() && created.Month() == now.Month() {
			sum.MonthMinutes += d
		}
		sum.TotalMinutes += d
		if d > sum.LongestMinutes {
			sum.LongestMinutes = d
		}
	}

	sum.TotalSessions = len(completed)
	if sum.TotalSessions > 0 {
		sum.AverageMinutes = sum.TotalMinutes / sum.TotalSessions
	}

	cal := a.Calendar(sessions, now)
	sum.CurrentStreak, sum.MaxStreak = streaks(cal)
	return sum
}

// Calendar buckets completed sessions into one entry per calendar day over
// the trailing CalendarDays window ending today. Days without sessions get
// zero buckets.
func (a *Aggregator) Calendar(sessions []models.Session, now time.Time) []DayActivity {
	return a.DailyTotals(sessions, CalendarDays, now)
}

// DailyTotals buckets completed sessions per day over the trailing `days`
// window ending today, oldest day first.
func (a *Aggregator) DailyTotals(sessions []models.Session, days int, now time.Time) []DayActivity {
	now = now.In(a.loc)
	today := midnight(now)
	start := today.AddDate(0, 0, -(days - 1))

	buckets := make([]DayActivity, days)
	for i := range buckets {
		buckets[i].Date = start.AddDate(0, 0, i)
	}

	for _, s := range a.completed(sessions) {
		day := midnight(s.CreatedAt.In(a.loc))
		idx := daysBetween(start, day)
		if idx < 0 || idx >= days {
			continue
		}
		buckets[idx].Minutes += s.DurationMinutes
		buckets[idx].Sessions++
	}
	return buckets
}

// IntensityLevel classifies a day's minutes into the 0–4 display scale.
func IntensityLevel(minutes int) int {
	switch {
	case minutes <= 0:
		return 0
	case minutes < 30:
		return 1
	case minutes < 60:
		return 2
	case minutes < 120:
		return 3
	default:
		return 4
	}
}

// streaks returns the current run of consecutive active days ending today
// (or yesterday, if today has no time yet) and the longest run in the
// window. The calendar must be ordered oldest first.
func streaks(cal []DayActivity) (current, max int) {
	run := 0
	for _, day := range cal {
		if day.Minutes > 0 {
			run++
			if run > max {
				max = run
			}
		} else {
			run = 0
		}
	}

	i := len(cal) - 1
	if i >= 0 && cal[i].Minutes == 0 {
		i-- // today has no time yet; a streak can still be alive through yesterday
	}
	for ; i >= 0 && cal[i].Minutes > 0; i-- {
		current++
	}
	return current, max
}

func (a *Aggregator) weekStart(now time.Time) time.Time {
	// Weeks start on Sunday.
	return midnight(now).AddDate(0, 0, -int(now.Weekday()))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func daysBetween(start, day time.Time) int {
	// Calendar-day difference; robust across DST because both inputs are
	// midnights in the same location.
	return int(day.Sub(start).Round(24*time.Hour) / (24 * time.Hour))
}
