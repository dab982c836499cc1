package scheduler

import (
	"context"

	"github.com/user/datalake/internal/config"
)

// Catalog runs configured jobs by name outside their schedule.
type Catalog struct {
	jobs   map[string]config.JobConfig
	runner *JobRunner
}

// NewCatalog indexes jobs by name.
func NewCatalog(jobs []config.JobConfig, runner *JobRunner) *Catalog {
	c := &Catalog{jobs: make(map[string]config.JobConfig, len(jobs)), runner: runner}
	for _, j := range jobs {
		c.jobs[j.Name] = j
	}
	return c
}

// Trigger runs the named job now. A non-empty input replaces the configured
// one. ok is false when no job has that name.
func (c *Catalog) Trigger(ctx context.Context, name, input string) (out Outcome, ok bool) {
	job, ok := c.jobs[name]
	if !ok {
		return Outcome{}, false
	}
	if input != "" {
		job.Input = input
	}
	return c.runner.Execute(ctx, job), true
}
