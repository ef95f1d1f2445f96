package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"opengate-hq/keeper/pkg/recordfs"
	"opengate-hq/keeper/pkg/telemetry/metrics"
)

// Syncer reconciles the catalog with the recordings on disk.
type Syncer interface {
	Sync(ctx context.Context, mode recordfs.SyncMode) (*recordfs.SyncResult, error)
}

// Reaper removes stale temporary clips.
type Reaper interface {
	Reap(ctx context.Context) (int, error)
}

// Compactor removes empty recording directories.
type Compactor interface {
	Compact(ctx context.Context) (int, error)
}

// PlanSource returns the retention plan for the next pass. It is called once
// per pass so configuration reloads take effect without a restart.
type PlanSource func() Plan

// SchedulerConfig contains configuration for the maintenance loop.
type SchedulerConfig struct {
	// TickInterval is the wait between loop iterations and bounds shutdown
	// latency.
	// Default: 60s
	TickInterval time.Duration

	// ExpireInterval runs an expiration pass every ExpireInterval ticks.
	// Default: 60
	ExpireInterval int

	// SyncEnabled runs a full sync at start and a limited sync daily.
	SyncEnabled bool

	// SyncHour is the UTC hour of the daily sync.
	// Default: 3
	SyncHour int

	// RecordingsDir, when set, is measured after each pass for disk usage.
	RecordingsDir string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSyncer sets the catalog syncer. Without one, sync is skipped.
func WithSyncer(syncer Syncer) SchedulerOption {
	return func(s *Scheduler) { s.syncer = syncer }
}

// WithReaper sets the tmp clip reaper run on every tick.
func WithReaper(reaper Reaper) SchedulerOption {
	return func(s *Scheduler) { s.reaper = reaper }
}

// WithCompactor sets the directory compactor run after each pass.
func WithCompactor(compactor Compactor) SchedulerOption {
	return func(s *Scheduler) { s.compactor = compactor }
}

// WithSchedulerMetrics records housekeeping metrics in collector.
func WithSchedulerMetrics(collector *metrics.Collector) SchedulerOption {
	return func(s *Scheduler) { s.metrics = collector }
}

// WithSchedulerClock replaces time.Now as the source of the current time.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler drives the maintenance loop. Every tick it reaps tmp clips and,
// once the daily sync time has passed, runs a limited sync. Every
// ExpireInterval ticks it runs an expiration pass followed by compaction.
// Failures are logged and never stop the loop.
type Scheduler struct {
	expirer   *Expirer
	plans     PlanSource
	syncer    Syncer
	reaper    Reaper
	compactor Compactor
	metrics   *metrics.Collector
	config    *SchedulerConfig
	daily     cron.Schedule
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	// Owned by the loop goroutine.
	counter  int
	nextSync time.Time

	lastTick atomic.Int64
}

// NewScheduler creates a scheduler. It fails if the sync hour is out of range.
func NewScheduler(expirer *Expirer, plans PlanSource, config *SchedulerConfig, opts ...SchedulerOption) (*Scheduler, error) {
	c := *config
	if c.TickInterval <= 0 {
		c.TickInterval = 60 * time.Second
	}
	if c.ExpireInterval <= 0 {
		c.ExpireInterval = 60
	}

	daily, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=UTC 0 %d * * *", c.SyncHour))
	if err != nil {
		return nil, fmt.Errorf("invalid sync hour %d: %w", c.SyncHour, err)
	}

	s := &Scheduler{
		expirer: expirer,
		plans:   plans,
		config:  &c,
		daily:   daily,
		logger:  slog.Default().With("component", "retention.scheduler"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs a full sync when enabled, then starts the loop in the
// background. The first tick happens one TickInterval after Start returns.
// Cancelling ctx stops the loop like Stop does; a pass already running
// completes first.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if s.syncEnabled() {
		s.runSync(ctx, recordfs.SyncFull)
	}
	s.nextSync = s.nextSyncAfter(s.now())

	s.logger.Info("maintenance scheduler started",
		"tick_interval", s.config.TickInterval,
		"expire_interval", s.config.ExpireInterval,
		"sync_enabled", s.syncEnabled(),
		"next_sync", s.nextSync,
	)

	go s.loop(ctx)
	return nil
}

// Stop signals the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("maintenance scheduler stopped")
}

// IsRunning returns true if the loop is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastTick returns when the loop last woke, or the zero time.
func (s *Scheduler) LastTick() time.Time {
	n := s.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-ticker.C:
		}

		s.tick(context.WithoutCancel(ctx))
	}
}

// tick runs one loop iteration.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.lastTick.Store(now.UnixNano())

	s.guard("reap", func() { s.reap(ctx) })

	if s.syncEnabled() && now.After(s.nextSync) {
		s.guard("sync", func() { s.runSync(ctx, recordfs.SyncLimited) })
		s.nextSync = s.nextSyncAfter(now)
	}

	if s.counter == 0 {
		s.guard("expire", func() { s.expire(ctx) })
	}
	s.counter = (s.counter + 1) % s.config.ExpireInterval
}

// guard contains a panic in one housekeeping task to that task.
func (s *Scheduler) guard(task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("maintenance task panicked", "task", task, "panic", r)
		}
	}()
	fn()
}

func (s *Scheduler) reap(ctx context.Context) {
	if s.reaper == nil {
		return
	}
	removed, err := s.reaper.Reap(ctx)
	s.metrics.RecordReaped(removed)
	if err != nil {
		s.logger.Error("tmp clip reap failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("removed stale tmp clips", "count", removed)
	}
}

func (s *Scheduler) runSync(ctx context.Context, mode recordfs.SyncMode) {
	result, err := s.syncer.Sync(ctx, mode)
	if err != nil {
		s.metrics.RecordSync(string(mode), "error", 0, 0)
		s.logger.Error("recording sync failed", "mode", mode, "error", err)
		return
	}
	s.metrics.RecordSync(string(mode), "success", result.RowsCreated, result.RowsRemoved)
}

func (s *Scheduler) expire(ctx context.Context) {
	if _, err := s.expirer.Expire(ctx, s.plans()); err != nil {
		s.logger.Error("expiration pass had failures", "error", err)
	}

	if s.compactor != nil {
		removed, err := s.compactor.Compact(ctx)
		s.metrics.RecordCompacted(removed)
		if err != nil {
			s.logger.Error("directory compaction failed", "error", err)
		}
	}

	if s.config.RecordingsDir != "" {
		usage, err := recordfs.DiskUsage(ctx, s.config.RecordingsDir)
		if err != nil {
			s.logger.Warn("disk usage unavailable", "path", s.config.RecordingsDir, "error", err)
			return
		}
		s.metrics.RecordDiskUsage(usage.UsedPercent, usage.Free)
		s.logger.Info("recordings storage usage",
			"used_percent", usage.UsedPercent,
			"free_bytes", usage.Free,
		)
	}
}

func (s *Scheduler) syncEnabled() bool {
	return s.config.SyncEnabled && s.syncer != nil
}

// nextSyncAfter returns the sync hour on the UTC day after now.
func (s *Scheduler) nextSyncAfter(now time.Time) time.Time {
	u := now.UTC()
	tomorrow := time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
	return s.daily.Next(tomorrow.Add(-time.Second))
}
