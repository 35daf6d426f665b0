// Package scheduler arms a once-per-day automatic sweep. A cron entry
// fires at the configured wall-clock time; whether anything happens is
// decided by the armed flag, which the scheduler owns exclusively.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
)

// SweepRunner is the onboarding pipeline's sweep entry point.
type SweepRunner interface {
	Sweep(ctx context.Context) (int, error)
}

type Scheduler struct {
	spec     string
	runner   SweepRunner
	notifier *notify.Broadcaster
	cron     *cron.Cron

	mu    sync.Mutex
	armed bool
}

func New(spec string, runner SweepRunner, notifier *notify.Broadcaster) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec:     spec,
		runner:   runner,
		notifier: notifier,
	}, nil
}

// Start registers the cron entry and begins ticking. The entry fires at
// most once per scheduled slot, so there is no suppression window to
// manage. ctx bounds the sweeps the scheduler launches.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("register schedule: %w", err)
	}
	c.Start()
	s.cron = c

	slog.Info("Scheduler started", "spec", s.spec, "armed", s.Armed())
	return nil
}

// Stop halts the cron ticker. A sweep already in flight runs to
// completion; Stop only prevents new firings.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	slog.Info("Scheduler stopped")
}

// Armed reports whether the daily trigger will actually sweep.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Toggle flips the armed flag and returns the new value. It has no
// effect on a sweep already in flight.
func (s *Scheduler) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = !s.armed
	return s.armed
}

// fire is the cron callback. Disarmed firings are cheap no-ops.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.Armed() {
		slog.Debug("Scheduled fire skipped, auto update disarmed")
		return
	}

	slog.Info("Scheduled sweep firing")
	attempted, err := s.runner.Sweep(ctx)
	if err != nil {
		slog.Error("Scheduled sweep failed", "error", err)
		return
	}

	text := fmt.Sprintf("🔄 Auto Update Completed!\n\n✅ Successfully updated %d batches.", attempted)
	s.notifier.Broadcast(ctx, notify.Message{Text: text})
}
