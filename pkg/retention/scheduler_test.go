package retention

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/recordfs"
)

type fakeReaper struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (r *fakeReaper) Reap(ctx context.Context) (int, error) {
	r.calls.Add(1)
	if r.panic {
		panic("reaper exploded")
	}
	return 1, r.err
}

type fakeCompactor struct {
	calls atomic.Int32
	err   error
}

func (c *fakeCompactor) Compact(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

type fakeSyncer struct {
	mu    sync.Mutex
	modes []recordfs.SyncMode
	err   error
}

func (s *fakeSyncer) Sync(ctx context.Context, mode recordfs.SyncMode) (*recordfs.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
	if s.err != nil {
		return nil, s.err
	}
	return &recordfs.SyncResult{Mode: mode}, nil
}

func (s *fakeSyncer) calls() []recordfs.SyncMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordfs.SyncMode(nil), s.modes...)
}

func countingPlans(n *atomic.Int32) PlanSource {
	return func() Plan {
		n.Add(1)
		return Plan{DefaultDays: 10}
	}
}

func newTestScheduler(t *testing.T, cfg *SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	t.Helper()
	var passes atomic.Int32
	s, err := NewScheduler(NewExpirer(catalog.NewMemoryStore(), nil), countingPlans(&passes), cfg, opts...)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	return s
}

func TestScheduler_TickCounter(t *testing.T) {
	var passes atomic.Int32
	reaper := &fakeReaper{}
	compactor := &fakeCompactor{}

	s, err := NewScheduler(
		NewExpirer(catalog.NewMemoryStore(), nil),
		countingPlans(&passes),
		&SchedulerConfig{ExpireInterval: 3},
		WithReaper(reaper),
		WithCompactor(compactor),
	)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}

	for i := 0; i < 7; i++ {
		s.tick(context.Background())
	}

	if got := reaper.calls.Load(); got != 7 {
		t.Errorf("expected reaper on every tick (7), got %d", got)
	}
	// Passes on ticks 0, 3 and 6.
	if got := passes.Load(); got != 3 {
		t.Errorf("expected 3 expiration passes, got %d", got)
	}
	if got := compactor.calls.Load(); got != 3 {
		t.Errorf("expected compaction after each pass, got %d", got)
	}
	if s.LastTick().IsZero() {
		t.Error("expected heartbeat after ticks")
	}
}

func TestScheduler_DailyLimitedSync(t *testing.T) {
	syncer := &fakeSyncer{}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s := newTestScheduler(t,
		&SchedulerConfig{SyncEnabled: true, SyncHour: 3, ExpireInterval: 100},
		WithSyncer(syncer),
		WithSchedulerClock(func() time.Time { return now }),
	)
	s.nextSync = s.nextSyncAfter(now)

	steps := []struct {
		at        time.Time
		wantCalls int
		wantNext  time.Time
	}{
		{time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC), 0, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 2, 2, 59, 0, 0, time.UTC), 0, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 2, 3, 1, 0, 0, time.UTC), 1, time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 2, 3, 2, 0, 0, time.UTC), 1, time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 3, 3, 0, 30, 0, time.UTC), 2, time.Date(2024, 5, 4, 3, 0, 0, 0, time.UTC)},
	}

	for _, step := range steps {
		now = step.at
		s.tick(context.Background())

		calls := syncer.calls()
		if len(calls) != step.wantCalls {
			t.Fatalf("at %v: expected %d syncs, got %d", step.at, step.wantCalls, len(calls))
		}
		if !s.nextSync.Equal(step.wantNext) {
			t.Errorf("at %v: expected next sync %v, got %v", step.at, step.wantNext, s.nextSync)
		}
	}

	for _, mode := range syncer.calls() {
		if mode != recordfs.SyncLimited {
			t.Errorf("daily sync must be limited, got %s", mode)
		}
	}
}

func TestScheduler_NextSyncAfter(t *testing.T) {
	east := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name string
		hour int
		now  time.Time
		want time.Time
	}{
		{"later today is skipped", 3, time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{"after hour", 3, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{"midnight", 0, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{"month end", 23, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC)},
		{"local time is converted", 3, time.Date(2024, 5, 1, 23, 30, 0, 0, east), time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(t, &SchedulerConfig{SyncHour: tt.hour})
			if got := s.nextSyncAfter(tt.now); !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewScheduler_InvalidSyncHour(t *testing.T) {
	_, err := NewScheduler(NewExpirer(catalog.NewMemoryStore(), nil), func() Plan { return Plan{} }, &SchedulerConfig{SyncHour: 24})
	if err == nil {
		t.Error("expected error for sync hour 24")
	}
}

func TestScheduler_FailuresDoNotStopLoop(t *testing.T) {
	reaper := &fakeReaper{err: errors.New("permission denied")}
	compactor := &fakeCompactor{err: errors.New("read-only filesystem")}
	syncer := &fakeSyncer{err: errors.New("root unavailable")}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s := newTestScheduler(t,
		&SchedulerConfig{SyncEnabled: true, ExpireInterval: 1},
		WithReaper(reaper),
		WithCompactor(compactor),
		WithSyncer(syncer),
		WithSchedulerClock(func() time.Time { return now }),
	)

	for i := 0; i < 3; i++ {
		now = now.Add(24 * time.Hour)
		s.tick(context.Background())
	}

	if reaper.calls.Load() != 3 || compactor.calls.Load() != 3 || len(syncer.calls()) != 3 {
		t.Errorf("loop stopped after failures: reaper=%d compactor=%d sync=%d",
			reaper.calls.Load(), compactor.calls.Load(), len(syncer.calls()))
	}
}

func TestScheduler_PanicIsContained(t *testing.T) {
	reaper := &fakeReaper{panic: true}
	compactor := &fakeCompactor{}

	s := newTestScheduler(t, &SchedulerConfig{ExpireInterval: 1},
		WithReaper(reaper),
		WithCompactor(compactor),
	)
	s.tick(context.Background())

	if compactor.calls.Load() != 1 {
		t.Error("expiration should still run after a panicking reaper")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	syncer := &fakeSyncer{}
	reaper := &fakeReaper{}

	s := newTestScheduler(t,
		&SchedulerConfig{TickInterval: 5 * time.Millisecond, ExpireInterval: 1, SyncEnabled: true},
		WithSyncer(syncer),
		WithReaper(reaper),
	)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if calls := syncer.calls(); len(calls) != 1 || calls[0] != recordfs.SyncFull {
		t.Fatalf("expected a full sync before Start returns, got %v", calls)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for reaper.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not tick")
		}
		time.Sleep(time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if s.IsRunning() {
		t.Error("scheduler still running after Stop()")
	}
	if s.LastTick().IsZero() {
		t.Error("expected heartbeat")
	}

	after := reaper.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if reaper.calls.Load() != after {
		t.Error("loop kept ticking after Stop()")
	}

	s.Stop()
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	s := newTestScheduler(t, &SchedulerConfig{TickInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler ignored context cancellation")
		}
		time.Sleep(time.Millisecond)
	}
}
