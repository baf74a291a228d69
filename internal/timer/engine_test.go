package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/focustrack/focustrack/internal/clock"
	"github.com/focustrack/focustrack/pkg/models"
)

// fakeSessions is an in-memory SessionStore with scriptable failures.
type fakeSessions struct {
	mu        sync.Mutex
	createErr error
	closeErr  error
	nextID    int
	created   []string
	closed    map[string]int
	// blockCreate, when set, holds CreateSession until released.
	blockCreate chan struct{}
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{closed: map[string]int{}}
}

func (f *fakeSessions) CreateSession(_ context.Context, userID string) (*models.Session, error) {
	if f.blockCreate != nil {
		<-f.blockCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("sess-%d", f.nextID)
	f.created = append(f.created, id)
	now := time.Now()
	return &models.Session{ID: id, UserID: userID, StartTime: now, IsActive: true, CreatedAt: now}, nil
}

func (f *fakeSessions) CloseSession(_ context.Context, sessionID, _ string, durationMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed[sessionID] = durationMinutes
	return nil
}

func (f *fakeSessions) ListSessions(context.Context, string) ([]models.Session, error) {
	return nil, nil
}

func (f *fakeSessions) TotalMinutes(context.Context, string) (int, error) {
	return 0, nil
}

func newTestEngine(sessions *fakeSessions, snaps SnapshotStore, clk clock.Clock, opts Options) *Engine {
	if snaps == nil {
		snaps = &MemorySnapshots{}
	}
	return NewEngine(sessions, snaps, clk, zerolog.Nop(), "user-1", opts)
}

func TestToggleIdleToRunning(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})

	state, err := e.Toggle(context.Background())
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state != StateRunning {
		t.Fatalf("state = %v, want running", state)
	}

	st := e.Status()
	if st.Seconds != 0 || st.SessionID != "sess-1" {
		t.Fatalf("status = %+v, want seconds=0 session=sess-1", st)
	}
}

func TestToggleCreateFailureStaysIdle(t *testing.T) {
	sessions := newFakeSessions()
	sessions.createErr = errors.New("store unreachable")
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})

	state, err := e.Toggle(context.Background())
	if err == nil {
		t.Fatal("expected error when session creation fails")
	}
	if state != StateIdle {
		t.Fatalf("state = %v, want idle", state)
	}
	if st := e.Status(); st.State != StateIdle || st.SessionID != "" {
		t.Fatalf("no local session may be fabricated, got %+v", st)
	}
}

func TestTickAdvancesOnlyWhileRunning(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	// Ticks in Idle are ignored.
	e.Tick()
	if st := e.Status(); st.Seconds != 0 {
		t.Fatalf("idle tick advanced seconds: %+v", st)
	}

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	if st := e.Status(); st.Seconds != 5 {
		t.Fatalf("seconds = %d, want 5", st.Seconds)
	}

	// Pause: ticks frozen, seconds retained, session kept.
	state, err := e.Toggle(ctx)
	if err != nil || state != StatePaused {
		t.Fatalf("pause: state=%v err=%v", state, err)
	}
	e.Tick()
	e.Tick()
	st := e.Status()
	if st.Seconds != 5 {
		t.Fatalf("paused seconds = %d, want 5", st.Seconds)
	}
	if st.SessionID != "sess-1" {
		t.Fatalf("pause dropped session id: %+v", st)
	}

	// Resume reuses the open session, no new create.
	state, err = e.Toggle(ctx)
	if err != nil || state != StateRunning {
		t.Fatalf("resume: state=%v err=%v", state, err)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("resume created a new session: %v", sessions.created)
	}
	e.Tick()
	if st := e.Status(); st.Seconds != 6 {
		t.Fatalf("seconds = %d, want 6", st.Seconds)
	}
}

func TestCompleteClosesWithFloorMinutes(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 150; i++ { // 2m30s
		e.Tick()
	}

	minutes, err := e.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if minutes != 2 {
		t.Fatalf("minutes = %d, want floor(150/60)=2", minutes)
	}
	if got := sessions.closed["sess-1"]; got != 2 {
		t.Fatalf("store closed with %d minutes, want 2", got)
	}
	if st := e.Status(); st.State != StateIdle || st.Seconds != 0 || st.SessionID != "" {
		t.Fatalf("post-complete status = %+v, want cleared idle", st)
	}
}

func TestCompleteNoopWithoutSessionOrTime(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	if _, err := e.Complete(ctx); !errors.Is(err, ErrNothingToComplete) {
		t.Fatalf("expected ErrNothingToComplete, got %v", err)
	}

	// Open session but zero seconds: still a no-op, state unchanged.
	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Complete(ctx); !errors.Is(err, ErrNothingToComplete) {
		t.Fatalf("expected ErrNothingToComplete, got %v", err)
	}
	if st := e.Status(); st.State != StateRunning || st.SessionID != "sess-1" {
		t.Fatalf("no-op complete changed state: %+v", st)
	}
}

func TestCompleteFailureKeepsState(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 90; i++ {
		e.Tick()
	}

	sessions.closeErr = errors.New("store unreachable")
	if _, err := e.Complete(ctx); err == nil {
		t.Fatal("expected complete to fail")
	}

	// Elapsed time is not lost; the session is still open locally.
	st := e.Status()
	if st.Seconds != 90 || st.SessionID != "sess-1" || st.State != StateRunning {
		t.Fatalf("failed complete mutated state: %+v", st)
	}

	// Retry after the store recovers.
	sessions.closeErr = nil
	minutes, err := e.Complete(ctx)
	if err != nil || minutes != 1 {
		t.Fatalf("retry complete: minutes=%d err=%v", minutes, err)
	}
}

func TestResetAlwaysReturnsToIdle(t *testing.T) {
	for _, fromPaused := range []bool{false, true} {
		sessions := newFakeSessions()
		snaps := &MemorySnapshots{}
		e := newTestEngine(sessions, snaps, clock.NewFixed(time.Now()), Options{})
		ctx := context.Background()

		if _, err := e.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		e.Tick()
		if fromPaused {
			if _, err := e.Toggle(ctx); err != nil {
				t.Fatal(err)
			}
		}

		e.Reset(ctx)

		if st := e.Status(); st.State != StateIdle || st.Seconds != 0 || st.SessionID != "" {
			t.Fatalf("fromPaused=%v: post-reset status = %+v", fromPaused, st)
		}
		if snap, _ := snaps.Load(); snap != nil {
			t.Fatalf("fromPaused=%v: snapshot not erased on reset", fromPaused)
		}
		// Default behavior leaves the store record open.
		if len(sessions.closed) != 0 {
			t.Fatalf("fromPaused=%v: reset closed the remote session", fromPaused)
		}
	}
}

func TestResetCloseOnResetOption(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{CloseOnReset: true})
	ctx := context.Background()

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	e.Tick()
	e.Reset(ctx)

	if minutes, ok := sessions.closed["sess-1"]; !ok || minutes != 0 {
		t.Fatalf("close-on-reset: closed=%v minutes=%d, want closed with 0", ok, minutes)
	}
	if st := e.Status(); st.State != StateIdle {
		t.Fatalf("status = %+v, want idle", st)
	}
}

func TestResetCloseOnResetFailureStillResets(t *testing.T) {
	sessions := newFakeSessions()
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{CloseOnReset: true})
	ctx := context.Background()

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	sessions.closeErr = errors.New("store unreachable")
	e.Reset(ctx)

	if st := e.Status(); st.State != StateIdle || st.Seconds != 0 {
		t.Fatalf("reset must discard local state even if close fails: %+v", st)
	}
}

func TestStaleCreateResultDiscardedAfterReset(t *testing.T) {
	sessions := newFakeSessions()
	sessions.blockCreate = make(chan struct{})
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Toggle(ctx)
	}()

	// Reset while the create call is still in flight.
	waitFor(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.starting
	})
	e.Reset(ctx)
	close(sessions.blockCreate)
	<-done

	// The create result landed after the reset and must not resurrect a
	// session.
	if st := e.Status(); st.State != StateIdle || st.SessionID != "" {
		t.Fatalf("stale create result applied: %+v", st)
	}
}

func TestToggleWhileStartPending(t *testing.T) {
	sessions := newFakeSessions()
	sessions.blockCreate = make(chan struct{})
	e := newTestEngine(sessions, nil, clock.NewFixed(time.Now()), Options{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Toggle(ctx)
	}()
	waitFor(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.starting
	})

	if _, err := e.Toggle(ctx); !errors.Is(err, ErrStartPending) {
		t.Fatalf("expected ErrStartPending, got %v", err)
	}

	close(sessions.blockCreate)
	<-done
	if st := e.Status(); st.State != StateRunning {
		t.Fatalf("first toggle should still land: %+v", st)
	}
}

func TestRestorePausedSnapshotExact(t *testing.T) {
	snaps := &MemorySnapshots{}
	saved := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_ = snaps.Save(Snapshot{IsWorking: false, Seconds: 321, CurrentSessionID: "sess-7", SavedAt: saved})

	// An hour passes before restart; paused time gets no catch-up.
	clk := clock.NewFixed(saved.Add(time.Hour))
	e := newTestEngine(newFakeSessions(), snaps, clk, Options{})
	e.Restore()

	st := e.Status()
	if st.State != StatePaused || st.Seconds != 321 || st.SessionID != "sess-7" {
		t.Fatalf("restored status = %+v, want paused 321s sess-7", st)
	}
}

func TestRestoreRunningSnapshotWithCatchUp(t *testing.T) {
	snaps := &MemorySnapshots{}
	saved := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_ = snaps.Save(Snapshot{IsWorking: true, Seconds: 100, CurrentSessionID: "sess-7", SavedAt: saved})

	clk := clock.NewFixed(saved.Add(42 * time.Second))
	e := newTestEngine(newFakeSessions(), snaps, clk, Options{})
	e.Restore()

	st := e.Status()
	if st.State != StateRunning || st.Seconds != 142 || st.SessionID != "sess-7" {
		t.Fatalf("restored status = %+v, want running 142s sess-7", st)
	}
}

func TestRestoreClampsBackwardClock(t *testing.T) {
	snaps := &MemorySnapshots{}
	saved := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_ = snaps.Save(Snapshot{IsWorking: true, Seconds: 100, CurrentSessionID: "sess-7", SavedAt: saved})

	clk := clock.NewFixed(saved.Add(-time.Minute))
	e := newTestEngine(newFakeSessions(), snaps, clk, Options{})
	e.Restore()

	if st := e.Status(); st.Seconds != 100 {
		t.Fatalf("seconds = %d, want catch-up clamped to 0", st.Seconds)
	}
}

func TestRestoreNoSnapshot(t *testing.T) {
	e := newTestEngine(newFakeSessions(), &MemorySnapshots{}, clock.NewFixed(time.Now()), Options{})
	e.Restore()
	if st := e.Status(); st.State != StateIdle || st.Seconds != 0 {
		t.Fatalf("fresh engine status = %+v", st)
	}
}

func TestSnapshotWrittenOnStateChanges(t *testing.T) {
	sessions := newFakeSessions()
	snaps := &MemorySnapshots{}
	clk := clock.NewFixed(time.Now())
	e := newTestEngine(sessions, snaps, clk, Options{})
	ctx := context.Background()

	if _, err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	e.Tick()
	e.Tick()

	snap, err := snaps.Load()
	if err != nil || snap == nil {
		t.Fatalf("snapshot missing after ticks: %v", err)
	}
	if !snap.IsWorking || snap.Seconds != 2 || snap.CurrentSessionID != "sess-1" {
		t.Fatalf("snapshot = %+v", snap)
	}

	if _, err := e.Toggle(ctx); err != nil { // pause
		t.Fatal(err)
	}
	snap, _ = snaps.Load()
	if snap.IsWorking {
		t.Fatal("snapshot should record paused state")
	}

	for i := 0; i < 58; i++ {
		e.Tick() // ignored while paused
	}
	if _, err := e.Toggle(ctx); err != nil { // resume
		t.Fatal(err)
	}
	for i := 0; i < 58; i++ {
		e.Tick()
	}
	if minutes, err := e.Complete(ctx); err != nil || minutes != 1 {
		t.Fatalf("complete: minutes=%d err=%v", minutes, err)
	}
	if snap, _ := snaps.Load(); snap != nil {
		t.Fatal("snapshot must be erased after successful complete")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
