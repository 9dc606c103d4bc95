// Package jobs runs the scheduled PTP digest and search reindex.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  logger.Logger
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, pairs(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := pairs(keysAndValues)
	fields["error"] = err.Error()
	c.log.Error(msg, fields)
}

func pairs(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}

// NewScheduler builds a scheduler evaluating specs in loc. Each run gets its
// own context bounded by timeout; overlapping runs of a job are skipped.
func NewScheduler(loc *time.Location, timeout time.Duration, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithFields(map[string]interface{}{"component": "scheduler"})
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: timeout,
		logger:  log,
	}
}

// Add registers job under a standard five-field cron spec.
func (s *Scheduler) Add(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { _ = s.RunNow(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
	}
	s.logger.Info("job scheduled", map[string]interface{}{"job": job.Name(), "schedule": spec})
	return nil
}

// RunNow executes job once with logging and metrics.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	fields := map[string]interface{}{
		"job":        job.Name(),
		"durationMs": time.Since(start).Milliseconds(),
	}
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name(), "failed").Inc()
		fields["error"] = err.Error()
		s.logger.Error("job failed", fields)
		return err
	}
	metrics.JobRuns.WithLabelValues(job.Name(), "succeeded").Inc()
	s.logger.Info("job completed", fields)
	return nil
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
