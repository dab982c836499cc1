package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/datalake/internal/config"
	"github.com/user/datalake/internal/report"
	"github.com/user/datalake/internal/types"
)

// Deliverer sends a rendered job result to a target.
type Deliverer interface {
	Deliver(ctx context.Context, target, message string) error
}

// JobRunner runs jobs against the data lake services, records one action
// event per run and delivers the rendered result when the job names a target.
type JobRunner struct {
	Query    types.QueryService
	Search   types.SearchService
	Context  types.ContextService
	Actions  types.ActionService
	Delivery Deliverer
	Logger   *slog.Logger
}

// Outcome is what a single run produced.
type Outcome struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Run implements Runner.
func (r *JobRunner) Run(ctx context.Context, job config.JobConfig) {
	r.Execute(ctx, job)
}

// Execute runs job and returns its outcome.
func (r *JobRunner) Execute(ctx context.Context, job config.JobConfig) Outcome {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	out := r.execute(ctx, job)

	if r.Actions != nil {
		payload, _ := json.Marshal(map[string]any{
			"job":         job.Name,
			"kind":        job.Kind,
			"input":       job.Input,
			"deliver_to":  job.DeliverTo,
			"error":       out.Error,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		res := r.Actions.Log(ctx, types.ActionRequest{
			AgentID:   "scheduler",
			EventType: "scheduled_job",
			Source:    "scheduler",
			Payload:   payload,
		})
		if !res.Success {
			logger.Warn("scheduled job not recorded", "name", job.Name, "error", res.Error)
		}
	}

	if job.DeliverTo != "" {
		if r.Delivery == nil {
			logger.Warn("no delivery configured", "name", job.Name, "target", job.DeliverTo)
		} else if err := r.Delivery.Deliver(ctx, job.DeliverTo, out.Message); err != nil {
			logger.Error("deliver job result failed", "name", job.Name, "target", job.DeliverTo, "error", err)
		}
	}

	if out.Error != "" {
		logger.Warn("scheduled job failed", "name", job.Name, "error", out.Error)
	} else {
		logger.Info("scheduled job complete", "name", job.Name, "duration", time.Since(start))
	}
	return out
}

func (r *JobRunner) execute(ctx context.Context, job config.JobConfig) Outcome {
	switch job.Kind {
	case "query":
		if r.Query == nil {
			return unavailable(job)
		}
		res := r.Query.Query(ctx, types.QueryRequest{Question: job.Input})
		return Outcome{Message: title(job) + report.Query(res), Error: res.Error}
	case "search":
		if r.Search == nil {
			return unavailable(job)
		}
		res := r.Search.Search(ctx, types.SearchRequest{Query: job.Input})
		return Outcome{Message: title(job) + report.Search(res), Error: res.Error}
	case "context":
		if r.Context == nil {
			return unavailable(job)
		}
		snap := r.Context.Build(ctx, types.ContextRequest{AgentID: job.Input})
		return Outcome{Message: title(job) + report.Snapshot(snap), Error: snap.Error}
	default:
		msg := fmt.Sprintf("unknown job kind %q", job.Kind)
		return Outcome{Message: title(job) + msg, Error: msg}
	}
}

func title(job config.JobConfig) string {
	return job.Name + "\n"
}

func unavailable(job config.JobConfig) Outcome {
	msg := job.Kind + " is not configured"
	return Outcome{Message: title(job) + msg, Error: msg}
}
