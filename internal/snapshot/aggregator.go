// Package snapshot assembles a context snapshot by fanning out to the four
// context sources concurrently.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/datalake/internal/types"
)

const (
	DefaultAgentID       = "system"
	DefaultEmailCount    = 10
	DefaultTaskCount     = 20
	DefaultAnalysisCount = 5
)

// Source names as reported in DegradedSources.
const (
	SourceEmails   = "recentEmails"
	SourceTasks    = "openTasks"
	SourceContacts = "contacts"
	SourceAnalyses = "recentAnalyses"
)

type EmailSource interface {
	Recent(ctx context.Context, count int) ([]types.EmailSummary, error)
}

type TaskSource interface {
	Open(ctx context.Context, count int) ([]types.Task, error)
}

type ContactSource interface {
	All(ctx context.Context) ([]types.Contact, error)
}

type AnalysisSource interface {
	Recent(ctx context.Context, count int) ([]types.AnalysisRecord, error)
}

// Aggregator builds snapshots. Every source call is isolated: an error or
// panic in one source yields an empty list for that source only.
type Aggregator struct {
	Emails   EmailSource
	Tasks    TaskSource
	Contacts ContactSource
	Analyses AnalysisSource

	Logger *slog.Logger
	Now    func() time.Time
}

// WithDefaults fills unset fields of req.
func WithDefaults(req types.ContextRequest) types.ContextRequest {
	if req.AgentID == "" {
		req.AgentID = DefaultAgentID
	}
	if req.EmailCount <= 0 {
		req.EmailCount = DefaultEmailCount
	}
	if req.TaskCount <= 0 {
		req.TaskCount = DefaultTaskCount
	}
	if req.AnalysisCount <= 0 {
		req.AnalysisCount = DefaultAnalysisCount
	}
	return req
}

// Build never returns an error. If ctx ends before the fan-in completes the
// snapshot carries Error and every list is empty.
func (a *Aggregator) Build(ctx context.Context, req types.ContextRequest) types.ContextSnapshot {
	req = WithDefaults(req)
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap := types.ContextSnapshot{
		Timestamp:      now(),
		AgentID:        req.AgentID,
		RecentEmails:   []types.EmailSummary{},
		OpenTasks:      []types.Task{},
		Contacts:       []types.Contact{},
		RecentAnalyses: []types.AnalysisRecord{},
	}

	// One slot per source keeps the degraded list in a stable order.
	var failures [4]error
	var g errgroup.Group

	g.Go(func() error {
		failures[0] = isolate(func() error {
			if a.Emails == nil {
				return errNotConfigured
			}
			emails, err := a.Emails.Recent(ctx, req.EmailCount)
			if err == nil {
				snap.RecentEmails = capped(emails, req.EmailCount)
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		failures[1] = isolate(func() error {
			if a.Tasks == nil {
				return errNotConfigured
			}
			tasks, err := a.Tasks.Open(ctx, req.TaskCount)
			if err == nil {
				snap.OpenTasks = capped(tasks, req.TaskCount)
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		failures[2] = isolate(func() error {
			if a.Contacts == nil {
				return errNotConfigured
			}
			contacts, err := a.Contacts.All(ctx)
			if err == nil && contacts != nil {
				snap.Contacts = contacts
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		failures[3] = isolate(func() error {
			if a.Analyses == nil {
				return errNotConfigured
			}
			analyses, err := a.Analyses.Recent(ctx, req.AnalysisCount)
			if err == nil {
				snap.RecentAnalyses = capped(analyses, req.AnalysisCount)
			}
			return err
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		aggErr := types.Wrap(types.KindAggregate, "snapshot.build", err)
		logger.Error("context snapshot failed", "agent_id", req.AgentID, "error", aggErr)
		return types.ContextSnapshot{
			Timestamp:      snap.Timestamp,
			AgentID:        req.AgentID,
			RecentEmails:   []types.EmailSummary{},
			OpenTasks:      []types.Task{},
			Contacts:       []types.Contact{},
			RecentAnalyses: []types.AnalysisRecord{},
			Error:          aggErr.Error(),
		}
	}

	names := [4]string{SourceEmails, SourceTasks, SourceContacts, SourceAnalyses}
	for i, err := range failures {
		if err == nil {
			continue
		}
		logger.Warn("context source degraded",
			"agent_id", req.AgentID,
			"source", names[i],
			"kind", types.KindOf(err),
			"error", err,
		)
		snap.DegradedSources = append(snap.DegradedSources, types.SourceError{Source: names[i], Error: err.Error()})
	}
	return snap
}

var errNotConfigured = types.Errorf(types.KindAdapter, "snapshot", "source not configured")

// isolate runs fn and converts a panic into an adapter error.
func isolate(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.Errorf(types.KindAdapter, "snapshot", "source panicked: %v", r)
		}
	}()
	return fn()
}

func capped[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

