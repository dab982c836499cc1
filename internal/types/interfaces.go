// internal/types/interfaces.go
package types

import (
	"context"
	"time"
)

// Warehouse executes bounded SQL against the analytical store.
type Warehouse interface {
	Query(ctx context.Context, sql string, maxRows int) ([]Row, error)
}

// EventSink appends one immutable event record.
type EventSink interface {
	AppendEvent(ctx context.Context, event *Event) error
}

// EventFilter selects events for EventReader. Empty strings match anything.
type EventFilter struct {
	Source    string
	EventType string
	Since     time.Time
}

// EventReader lists recent events, newest first.
type EventReader interface {
	RecentEvents(ctx context.Context, filter EventFilter, limit int) ([]*Event, error)
}

// AnalysisReader lists recent analysis records, newest first.
type AnalysisReader interface {
	RecentAnalyses(ctx context.Context, since time.Time, limit int) ([]AnalysisRecord, error)
}

// SheetReader reads a rectangular range of cells from the document store.
type SheetReader interface {
	Values(ctx context.Context, rangeA1 string) ([][]string, error)
}

// QueryService answers natural-language questions. It never fails; errors
// are reported in the result.
type QueryService interface {
	Query(ctx context.Context, req QueryRequest) QueryResult
}

// SearchService runs ranked search. It never fails; errors are reported in
// the result.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) SearchResult
}

// ContextService builds context snapshots.
type ContextService interface {
	Build(ctx context.Context, req ContextRequest) ContextSnapshot
}

// ActionService appends action records.
type ActionService interface {
	Log(ctx context.Context, req ActionRequest) ActionResult
}
