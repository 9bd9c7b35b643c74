// Package scheduler periodically refreshes the region hierarchy.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is anything that can be refreshed on a schedule, such as a
// region.Directory.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler wraps robfig/cron and runs one refresh per tick. Ticks that fire
// while the previous tick is still running are skipped by the cron chain; the
// immediate refresh on Start is guarded separately by RunOnce.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	spec      string
	timeout   time.Duration

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler firing on spec, e.g. "@every 24h". Each refresh
// is bounded by timeout.
func New(refresher Refresher, spec string, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		refresher: refresher,
		spec:      spec,
		timeout:   timeout,
	}
}

// Start registers the job, starts the scheduler and runs one refresh
// immediately so the data is available without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddJob(s.spec, cron.FuncJob(func() { s.RunOnce(ctx) })); err != nil {
		return fmt.Errorf("scheduler: cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	slog.Info("cron started", "component", "scheduler", "spec", s.spec)

	go s.RunOnce(ctx)
	return nil
}

// Stop shuts down the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("cron stopped", "component", "scheduler")
}

// RunOnce performs a single refresh unless one is already in progress. It
// reports whether a refresh ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Debug("refresh already running, tick skipped", "component", "scheduler")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.refresher.Refresh(ctx); err != nil {
		slog.Warn("refresh failed", "component", "scheduler", "err", err)
		return true
	}
	slog.Debug("refresh complete", "component", "scheduler", "took", time.Since(start))
	return true
}

// cronLogger routes robfig/cron's own logging to slog. Routine events such
// as "skip" go to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, append([]any{"component", "scheduler"}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]any{"component", "scheduler", "err", err}, keysAndValues...)...)
}
