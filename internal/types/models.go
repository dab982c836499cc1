// internal/types/models.go
package types

import (
	"encoding/json"
	"time"
)

// Event is one immutable row of the warehouse event log.
type Event struct {
	ID        EventID         `json:"event_id"`
	Timestamp time.Time       `json:"timestamp"`
	AgentID   string          `json:"agent_id"`
	Type      string          `json:"event_type"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	Processed bool            `json:"processed"`
}

// AnalysisRecord is a read-only AI analysis row. EventID may reference an
// event that no longer exists.
type AnalysisRecord struct {
	ID           AnalysisID `json:"analysisId"`
	EventID      EventID    `json:"eventId,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	ModelID      string     `json:"modelId"`
	AnalysisType string     `json:"analysisType"`
	InputSummary string     `json:"inputSummary"`
	Confidence   float64    `json:"confidence"`
}

// Row is one result row from the warehouse keyed by column name.
type Row map[string]any

// QueryResult is the outcome of one natural-language query. Error and a
// non-empty Rows never occur together.
type QueryResult struct {
	Question     string `json:"question"`
	GeneratedSQL string `json:"generatedSql"`
	Rows         []Row  `json:"rows"`
	TotalRows    int    `json:"totalRows"`
	ExecutionMs  int64  `json:"executionMs"`
	Error        string `json:"error,omitempty"`
}

// SearchHit is a normalized row of a ranked search.
type SearchHit struct {
	EventID        *string `json:"eventId"`
	Timestamp      *string `json:"timestamp"`
	Source         *string `json:"source"`
	EventType      *string `json:"eventType"`
	Subject        *string `json:"subject"`
	Snippet        *string `json:"snippet"`
	RelevanceScore float64 `json:"relevanceScore"`
	Table          *string `json:"table"`
}

type SearchResult struct {
	Query          string      `json:"query"`
	Hits           []SearchHit `json:"hits"`
	TotalHits      int         `json:"totalHits"`
	ExecutionMs    int64       `json:"executionMs"`
	TablesSearched []string    `json:"tablesSearched"`
	Error          string      `json:"error,omitempty"`
}

// EmailSummary is a recent inbound communication as shown in a snapshot.
type EmailSummary struct {
	EventID   EventID   `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Snippet   string    `json:"snippet,omitempty"`
}

// Task is one open row of the task sheet.
type Task struct {
	Row      int    `json:"row"`
	Title    string `json:"title"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Due      string `json:"due,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Contact is one row of the contacts sheet.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// SourceError names a context source that failed and was replaced by an
// empty list.
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ContextSnapshot aggregates the four context sources. Lists are never nil.
type ContextSnapshot struct {
	Timestamp       time.Time        `json:"timestamp"`
	AgentID         string           `json:"agentId"`
	RecentEmails    []EmailSummary   `json:"recentEmails"`
	OpenTasks       []Task           `json:"openTasks"`
	Contacts        []Contact        `json:"contacts"`
	RecentAnalyses  []AnalysisRecord `json:"recentAnalyses"`
	DegradedSources []SourceError    `json:"degradedSources,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// ActionRequest is the input of a single Action Logger write.
type ActionRequest struct {
	AgentID   string          `json:"agentId"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	Processed bool            `json:"processed"`
}

// ActionResult always carries the id and timestamp used for the attempted
// write, even when Success is false.
type ActionResult struct {
	EventID   EventID   `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// QueryRequest is the input of the NL Query Service.
type QueryRequest struct {
	Question string `json:"question"`
	MaxRows  int    `json:"maxRows,omitempty"`
}

// SearchRequest is the input of the Semantic Search Service. Sources and
// TimeRangeDays are advisory to the translator and re-applied as hard
// filters when strict filtering is on.
type SearchRequest struct {
	Query         string   `json:"query"`
	MaxResults    int      `json:"maxResults,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	TimeRangeDays int      `json:"timeRangeDays,omitempty"`
}

// ContextRequest is the input of the Context Aggregator.
type ContextRequest struct {
	AgentID       string `json:"agentId,omitempty"`
	EmailCount    int    `json:"emailCount,omitempty"`
	TaskCount     int    `json:"taskCount,omitempty"`
	AnalysisCount int    `json:"analysisCount,omitempty"`
}
