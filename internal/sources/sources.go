// Package sources implements the four context reads: recent emails, open
// tasks, contacts and recent analyses. Each adapter returns its own error;
// isolation is the aggregator's job.
package sources

import (
	"context"
	"time"

	"github.com/user/datalake/internal/types"
)

// Window is how far back the email and analysis adapters look.
const Window = 7 * 24 * time.Hour

const (
	EmailSource    = "gmail"
	EmailEventType = "email_received"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Set groups the adapters the aggregator fans out to.
type Set struct {
	Emails   *Emails
	Tasks    *Tasks
	Contacts *Contacts
	Analyses *Analyses
}

// NewSet builds all four adapters over the given stores.
func NewSet(events types.EventReader, analyses types.AnalysisReader, sheet types.SheetReader, tasksRange, contactsRange string) *Set {
	return &Set{
		Emails:   &Emails{Events: events},
		Tasks:    &Tasks{Sheet: sheet, Range: tasksRange},
		Contacts: &Contacts{Sheet: sheet, Range: contactsRange},
		Analyses: &Analyses{Reader: analyses},
	}
}

// Emails reads inbound email events from the warehouse.
type Emails struct {
	Events types.EventReader
	Clock  Clock
}

// Recent returns up to count emails from the trailing window, newest first.
func (e *Emails) Recent(ctx context.Context, count int) ([]types.EmailSummary, error) {
	if e.Events == nil {
		return nil, types.Errorf(types.KindAdapter, "sources.emails", "no event reader configured")
	}
	if count <= 0 {
		return []types.EmailSummary{}, nil
	}
	events, err := e.Events.RecentEvents(ctx, types.EventFilter{
		Source:    EmailSource,
		EventType: EmailEventType,
		Since:     e.Clock.now().Add(-Window),
	}, count)
	if err != nil {
		return nil, types.Wrap(types.KindAdapter, "sources.emails", err)
	}

	out := make([]types.EmailSummary, 0, len(events))
	for _, ev := range events {
		out = append(out, summarizeEmail(ev))
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

// Analyses reads AI analysis records from the warehouse.
type Analyses struct {
	Reader types.AnalysisReader
	Clock  Clock
}

// Recent returns up to count analyses from the trailing window, newest first.
func (a *Analyses) Recent(ctx context.Context, count int) ([]types.AnalysisRecord, error) {
	if a.Reader == nil {
		return nil, types.Errorf(types.KindAdapter, "sources.analyses", "no analysis reader configured")
	}
	if count <= 0 {
		return []types.AnalysisRecord{}, nil
	}
	records, err := a.Reader.RecentAnalyses(ctx, a.Clock.now().Add(-Window), count)
	if err != nil {
		return nil, types.Wrap(types.KindAdapter, "sources.analyses", err)
	}
	if records == nil {
		records = []types.AnalysisRecord{}
	}
	if len(records) > count {
		records = records[:count]
	}
	return records, nil
}
