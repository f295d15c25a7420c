package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

var ErrSchedulerStarted = errors.New("scheduler already started")

// Runner is the job the scheduler fires.
type Runner interface {
	RunDue(ctx context.Context) (RunResult, error)
}

// Scheduler owns the cron handle for the daily reminder run. Runs never
// overlap: a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	schedule string
	job      Runner
	log      *slog.Logger
	mu       sync.Mutex
	cron     *cron.Cron
	cancel   context.CancelFunc
}

func NewScheduler(schedule string, job Runner, log *slog.Logger) *Scheduler {
	return &Scheduler{schedule: schedule, job: job, log: log}
}

// Start registers the job and starts the cron goroutine. Runs receive a
// context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrSchedulerStarted
	}

	clog := cronLogger{log: s.log}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	runCtx, cancel := context.WithCancel(ctx)
	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.job.RunDue(runCtx); err != nil {
			s.log.Error("scheduled reminder run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.log.Info("reminder scheduler started", slog.String("schedule", s.schedule))
	return nil
}

// Stop stops scheduling and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := c.Stop()
	defer cancel()
	select {
	case <-done.Done():
		s.log.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
