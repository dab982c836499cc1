// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/datalake/internal/config"
)

// Runner executes one scheduled job.
type Runner interface {
	Run(ctx context.Context, job config.JobConfig)
}

// Scheduler fires configured jobs on their cron schedules.
type Scheduler struct {
	ctx    context.Context
	jobs   []config.JobConfig
	runner Runner
	logger *slog.Logger
	cron   *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextRun returns the first activation of spec after t.
func NextRun(spec string, t time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

// New creates a scheduler for jobs. Jobs run with ctx, so cancelling it
// aborts in-flight work.
func New(ctx context.Context, jobs []config.JobConfig, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ctx:    ctx,
		jobs:   jobs,
		runner: runner,
		logger: logger,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers every job with a valid schedule and starts the cron ticker.
// It returns the number of jobs scheduled; invalid schedules are logged and
// skipped.
func (s *Scheduler) Start() int {
	scheduled := 0
	for _, job := range s.jobs {
		_, err := s.cron.AddFunc(job.Spec, func() {
			s.logger.Info("cron firing job", "name", job.Name, "kind", job.Kind)
			s.runner.Run(s.ctx, job)
		})
		if err != nil {
			s.logger.Error("invalid cron schedule", "name", job.Name, "schedule", job.Spec, "error", err)
			continue
		}
		scheduled++
		s.logger.Info("scheduled job", "name", job.Name, "schedule", job.Spec)
	}

	s.cron.Start()
	return scheduled
}

// Stop stops the ticker and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
