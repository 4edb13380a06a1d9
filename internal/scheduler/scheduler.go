// Package scheduler is the timer gate in front of the persist cycle. It
// holds no backup logic: it fires the Persister every check interval and
// once more, forced, on shutdown.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wrenware/content-archiver/internal/logging"
)

// DefaultCheckInterval is used when the config does not set one.
const DefaultCheckInterval = 30 * time.Second

// Persister runs one full backup cycle.
type Persister interface {
	Persist()
}

type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entry    cron.EntryID
	started  bool
	interval time.Duration

	persister Persister
	log       logging.Logger
}

func New(p Persister, checkInterval time.Duration, log logging.Logger) *Scheduler {
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}

	// SkipIfStillRunning keeps persist cycles strictly sequential: if a slow
	// handler overruns the check interval the next tick is dropped, never
	// run concurrently.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{log}),
	))

	return &Scheduler{
		cron:      c,
		interval:  checkInterval,
		persister: p,
		log:       log,
	}
}

// Start begins the periodic persist checks.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(everySpec(s.interval), s.persister.Persist)
	if err != nil {
		return fmt.Errorf("scheduling persist checks: %w", err)
	}
	s.entry = id
	s.started = true

	s.cron.Start()
	s.log.Info("scheduler started", "checkInterval", s.interval.String())
	return nil
}

// UpdateCheckInterval applies a new check interval, taking effect from the
// next tick. A non-positive value resets to the default.
func (s *Scheduler) UpdateCheckInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultCheckInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d == s.interval {
		return
	}
	s.interval = d

	if !s.started {
		return
	}

	s.cron.Remove(s.entry)
	id, err := s.cron.AddFunc(everySpec(d), s.persister.Persist)
	if err != nil {
		// everySpec always yields a valid descriptor
		s.log.Error("rescheduling persist checks failed", "error", err)
		return
	}
	s.entry = id
	s.log.Info("check interval updated", "checkInterval", d.String())
}

// Stop halts the periodic checks, waits for an in-flight cycle to finish
// (bounded by ctx) and runs one final forced persist so that due backups
// are not dropped on exit. If the wait times out the final persist is
// skipped: cycles are strictly sequential, ticked or forced, and the one
// still running already picks up everything due.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		drained := s.cron.Stop()
		select {
		case <-drained.Done():
		case <-ctx.Done():
			// A cycle is still running and will complete on its own; it
			// covers whatever backups are due. Starting the forced persist
			// now would run two cycles at once.
			s.log.Warn("persist cycle still running at shutdown, skipping final persist", "error", ctx.Err())
			return
		}
	}

	s.log.Info("running final persist before shutdown")
	s.persister.Persist()
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

// cronLogger adapts our Logger to cron's. cron is chatty at info level, so
// its informational output is demoted to debug.
type cronLogger struct {
	log logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
