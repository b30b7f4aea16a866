// Package jobs runs the periodic maintenance work of the renewal API:
// nightly backups of the stores and uploads, and cleanup of uploads that never
// completed. Scheduling is done with robfig/cron.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/straye-as/renewal-api/internal/logger"
	"go.uber.org/zap"
)

// Func is one run of a job. The context is cancelled when the job's timeout
// elapses.
type Func func(ctx context.Context) error

// cronLogger routes cron's own messages (panics, skipped runs) to zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler manages background jobs using cron scheduling.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
	funcs  map[string]func()
}

// NewScheduler creates a new job scheduler. A run that is still going when
// the next one is due is skipped, and a panicking run is recovered.
func NewScheduler(log *zap.Logger) *Scheduler {
	cl := cronLogger{sugar: log.Named("cron").Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: log,
		jobs:   make(map[string]cron.EntryID),
		funcs:  make(map[string]func()),
	}
}

// Start starts the scheduler. Jobs added before this call will begin running.
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Strings("jobs", s.JobNames()))
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs
// have completed.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	return s.cron.Stop()
}

// AddJob registers job under name. The expression has a leading seconds
// field ("0 0 21 * * *" is 21:00 daily); descriptors like "@hourly" and
// "@every 30m" work too. A zero timeout means no deadline.
func (s *Scheduler) AddJob(name, cronExpr string, timeout time.Duration, job Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	run := s.wrap(name, timeout, job)
	entryID, err := s.cron.AddFunc(cronExpr, run)
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.funcs[name] = run
	s.logger.Info("added scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr),
		zap.Duration("timeout", timeout))
	return nil
}

func (s *Scheduler) wrap(name string, timeout time.Duration, job Func) func() {
	log := logger.WithJob(s.logger, name)
	return func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		log.Info("running scheduled job")
		if err := job(ctx); err != nil {
			log.Error("scheduled job failed",
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			return
		}
		log.Info("completed scheduled job", zap.Duration("duration", time.Since(start)))
	}
}

// RunNow runs a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	run, ok := s.funcs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	run()
	return nil
}

// RemoveJob removes a job by name.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(entryID)
	delete(s.jobs, name)
	delete(s.funcs, name)

	s.logger.Info("removed scheduled job", zap.String("job_name", name))
	return nil
}

// JobNames returns the names of all registered jobs.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
