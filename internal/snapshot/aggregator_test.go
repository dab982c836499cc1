package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/user/datalake/internal/types"
)

type emailFunc func(ctx context.Context, count int) ([]types.EmailSummary, error)

func (f emailFunc) Recent(ctx context.Context, count int) ([]types.EmailSummary, error) {
	return f(ctx, count)
}

type taskFunc func(ctx context.Context, count int) ([]types.Task, error)

func (f taskFunc) Open(ctx context.Context, count int) ([]types.Task, error) { return f(ctx, count) }

type contactFunc func(ctx context.Context) ([]types.Contact, error)

func (f contactFunc) All(ctx context.Context) ([]types.Contact, error) { return f(ctx) }

type analysisFunc func(ctx context.Context, count int) ([]types.AnalysisRecord, error)

func (f analysisFunc) Recent(ctx context.Context, count int) ([]types.AnalysisRecord, error) {
	return f(ctx, count)
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func emails(n int) []types.EmailSummary {
	out := make([]types.EmailSummary, n)
	for i := range out {
		out[i] = types.EmailSummary{EventID: types.EventID("e" + string(rune('a'+i)))}
	}
	return out
}

func tasks(n int) []types.Task {
	out := make([]types.Task, n)
	for i := range out {
		out[i] = types.Task{Row: i + 2, Title: "task"}
	}
	return out
}

func analyses(n int) []types.AnalysisRecord {
	out := make([]types.AnalysisRecord, n)
	for i := range out {
		out[i] = types.AnalysisRecord{ID: "a"}
	}
	return out
}

func healthyAggregator() *Aggregator {
	return &Aggregator{
		Emails: emailFunc(func(_ context.Context, _ int) ([]types.EmailSummary, error) {
			return emails(15), nil
		}),
		Tasks: taskFunc(func(_ context.Context, _ int) ([]types.Task, error) {
			return tasks(30), nil
		}),
		Contacts: contactFunc(func(_ context.Context) ([]types.Contact, error) {
			return []types.Contact{{Name: "Ann"}, {Name: "Bo"}}, nil
		}),
		Analyses: analysisFunc(func(_ context.Context, _ int) ([]types.AnalysisRecord, error) {
			return analyses(8), nil
		}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return fixedNow },
	}
}

func TestBuildAllSucceedRespectsCaps(t *testing.T) {
	agg := healthyAggregator()
	snap := agg.Build(context.Background(), types.ContextRequest{EmailCount: 3, TaskCount: 4, AnalysisCount: 2})

	if snap.Error != "" {
		t.Fatalf("unexpected error %q", snap.Error)
	}
	if len(snap.DegradedSources) != 0 {
		t.Errorf("unexpected degraded sources %v", snap.DegradedSources)
	}
	if len(snap.RecentEmails) != 3 || len(snap.OpenTasks) != 4 || len(snap.RecentAnalyses) != 2 {
		t.Errorf("caps not respected: %d emails, %d tasks, %d analyses",
			len(snap.RecentEmails), len(snap.OpenTasks), len(snap.RecentAnalyses))
	}
	if len(snap.Contacts) != 2 {
		t.Errorf("expected 2 contacts, got %d", len(snap.Contacts))
	}
	if snap.AgentID != DefaultAgentID {
		t.Errorf("expected default agent id, got %q", snap.AgentID)
	}
	if !snap.Timestamp.Equal(fixedNow) {
		t.Errorf("expected timestamp %v, got %v", fixedNow, snap.Timestamp)
	}
}

func TestBuildDefaults(t *testing.T) {
	var gotEmail, gotTask, gotAnalysis int
	agg := healthyAggregator()
	agg.Emails = emailFunc(func(_ context.Context, n int) ([]types.EmailSummary, error) { gotEmail = n; return nil, nil })
	agg.Tasks = taskFunc(func(_ context.Context, n int) ([]types.Task, error) { gotTask = n; return nil, nil })
	agg.Analyses = analysisFunc(func(_ context.Context, n int) ([]types.AnalysisRecord, error) { gotAnalysis = n; return nil, nil })

	snap := agg.Build(context.Background(), types.ContextRequest{AgentID: "agent-7"})
	if gotEmail != 10 || gotTask != 20 || gotAnalysis != 5 {
		t.Errorf("unexpected default counts %d/%d/%d", gotEmail, gotTask, gotAnalysis)
	}
	if snap.AgentID != "agent-7" {
		t.Errorf("expected agent-7, got %q", snap.AgentID)
	}
	if snap.RecentEmails == nil || snap.OpenTasks == nil || snap.RecentAnalyses == nil {
		t.Error("lists must never be nil")
	}
}

func TestBuildTaskFailureIsIsolated(t *testing.T) {
	agg := healthyAggregator()
	agg.Tasks = taskFunc(func(_ context.Context, _ int) ([]types.Task, error) {
		return nil, errors.New("sheet unavailable")
	})

	snap := agg.Build(context.Background(), types.ContextRequest{})
	if snap.Error != "" {
		t.Fatalf("task failure must not set snapshot error, got %q", snap.Error)
	}
	if len(snap.OpenTasks) != 0 || snap.OpenTasks == nil {
		t.Errorf("expected empty tasks, got %#v", snap.OpenTasks)
	}
	if len(snap.RecentEmails) == 0 || len(snap.Contacts) == 0 || len(snap.RecentAnalyses) == 0 {
		t.Error("other sources should still be populated")
	}
	if len(snap.DegradedSources) != 1 || snap.DegradedSources[0].Source != SourceTasks {
		t.Errorf("expected openTasks degraded, got %v", snap.DegradedSources)
	}
}

func TestBuildEmailAndAnalysisFailuresAreIsolated(t *testing.T) {
	agg := healthyAggregator()
	agg.Emails = emailFunc(func(_ context.Context, _ int) ([]types.EmailSummary, error) {
		return nil, types.Errorf(types.KindAdapter, "sources.emails", "warehouse down")
	})
	agg.Analyses = analysisFunc(func(_ context.Context, _ int) ([]types.AnalysisRecord, error) {
		return nil, errors.New("timeout")
	})

	snap := agg.Build(context.Background(), types.ContextRequest{})
	if snap.Error != "" {
		t.Fatalf("unexpected snapshot error %q", snap.Error)
	}
	if len(snap.OpenTasks) == 0 || len(snap.Contacts) == 0 {
		t.Error("tasks and contacts should be populated")
	}
	if len(snap.DegradedSources) != 2 ||
		snap.DegradedSources[0].Source != SourceEmails ||
		snap.DegradedSources[1].Source != SourceAnalyses {
		t.Errorf("unexpected degraded sources %v", snap.DegradedSources)
	}
}

func TestBuildRecoversPanics(t *testing.T) {
	agg := healthyAggregator()
	agg.Contacts = contactFunc(func(_ context.Context) ([]types.Contact, error) {
		panic("nil map")
	})

	snap := agg.Build(context.Background(), types.ContextRequest{})
	if len(snap.Contacts) != 0 || snap.Contacts == nil {
		t.Errorf("expected empty contacts, got %#v", snap.Contacts)
	}
	if len(snap.DegradedSources) != 1 || snap.DegradedSources[0].Source != SourceContacts {
		t.Errorf("expected contacts degraded, got %v", snap.DegradedSources)
	}
	if len(snap.RecentEmails) == 0 {
		t.Error("emails should survive a contacts panic")
	}
}

func TestBuildMissingSource(t *testing.T) {
	agg := healthyAggregator()
	agg.Contacts = nil

	snap := agg.Build(context.Background(), types.ContextRequest{})
	if len(snap.DegradedSources) != 1 || snap.DegradedSources[0].Source != SourceContacts {
		t.Errorf("expected contacts degraded, got %v", snap.DegradedSources)
	}
}

func TestBuildSourcesRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	agg := healthyAggregator()
	agg.Emails = emailFunc(func(_ context.Context, _ int) ([]types.EmailSummary, error) {
		started <- struct{}{}
		<-release
		return emails(1), nil
	})
	agg.Tasks = taskFunc(func(_ context.Context, _ int) ([]types.Task, error) {
		started <- struct{}{}
		<-release
		return tasks(1), nil
	})

	done := make(chan types.ContextSnapshot)
	go func() { done <- agg.Build(context.Background(), types.ContextRequest{}) }()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("sources did not start concurrently")
		}
	}
	close(release)
	snap := <-done
	if len(snap.RecentEmails) != 1 || len(snap.OpenTasks) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestBuildCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := healthyAggregator().Build(ctx, types.ContextRequest{})
	if snap.Error == "" {
		t.Fatal("expected snapshot error for cancelled context")
	}
	if len(snap.RecentEmails)+len(snap.OpenTasks)+len(snap.Contacts)+len(snap.RecentAnalyses) != 0 {
		t.Error("expected every list to be empty")
	}
	if snap.RecentEmails == nil || snap.Contacts == nil {
		t.Error("lists must never be nil")
	}
	if !snap.Timestamp.Equal(fixedNow) {
		t.Errorf("expected timestamp captured at start, got %v", snap.Timestamp)
	}
}
