package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrSchedulerNotConfigured is returned by a manual trigger on a scheduler without a job
var ErrSchedulerNotConfigured = errors.New("scheduler is not configured")

// Runner is one pass of scheduled work
type Runner interface {
	Run(ctx context.Context) RunOutcome
}

// Scheduler fires the snapshot job on a cron cadence and on demand
type Scheduler struct {
	cron       *cron.Cron
	schedule   cron.Schedule
	expression string
	location   *time.Location
	job        Runner
	status     *StatusTracker

	mutex   sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc

	logger *logrus.Entry
}

// NewScheduler parses a standard five-field cron expression evaluated in loc
func NewScheduler(expression string, loc *time.Location, job Runner, status *StatusTracker) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if status == nil {
		status = NewStatusTracker(loc)
	}

	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	logger := logrus.WithField("component", "Scheduler")
	cronLog := cronLogger{entry: logger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		schedule:   schedule,
		expression: expression,
		location:   loc,
		job:        job,
		status:     status,
		logger:     logger,
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins firing the job on the cadence
func (s *Scheduler) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.started {
		return
	}

	s.logger.WithField("cron_expression", s.expression).Info("Starting scheduler")
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.started = true

	s.status.SetRunning(true)
	s.status.SetNextRun(s.schedule.Next(time.Now().In(s.location)))
	s.logger.Info("Scheduler started successfully")
}

// Stop halts the cadence, cancels running jobs and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mutex.Lock()
	if !s.started {
		s.mutex.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	done := s.cron.Stop()
	s.mutex.Unlock()

	s.status.SetRunning(false)

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerManually runs the job now, on the caller's goroutine
func (s *Scheduler) TriggerManually(ctx context.Context) (RunOutcome, error) {
	if s == nil || s.job == nil {
		return "", ErrSchedulerNotConfigured
	}

	s.logger.Info("Manual trigger requested")
	outcome := s.job.Run(ctx)
	if outcome == OutcomePanicked {
		return outcome, errors.New("market snapshot task panicked")
	}
	return outcome, nil
}

func (s *Scheduler) tick() {
	s.mutex.Lock()
	ctx := s.ctx
	s.mutex.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	s.status.SetNextRun(s.schedule.Next(time.Now().In(s.location)))
	s.job.Run(ctx)
}

// cronLogger routes robfig/cron's own logging into logrus
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
