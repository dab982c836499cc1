package warehouse

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/user/datalake/internal/types"
)

// EventRow is the events table.
type EventRow struct {
	EventID   string         `gorm:"column:event_id;primaryKey;size:36"`
	Timestamp time.Time      `gorm:"column:timestamp;not null;index:idx_events_source_ts,priority:2"`
	AgentID   string         `gorm:"column:agent_id;size:64;not null"`
	EventType string         `gorm:"column:event_type;size:64;not null;index"`
	Source    string         `gorm:"column:source;size:64;not null;index:idx_events_source_ts,priority:1"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	Processed bool           `gorm:"column:processed;not null;default:false"`
}

func (EventRow) TableName() string { return "events" }

// AnalysisRow is the ai_analysis table.
type AnalysisRow struct {
	AnalysisID   string    `gorm:"column:analysis_id;primaryKey;size:36"`
	EventID      string    `gorm:"column:event_id;size:36;index"`
	Timestamp    time.Time `gorm:"column:timestamp;not null;index"`
	ModelID      string    `gorm:"column:model_id;size:128"`
	AnalysisType string    `gorm:"column:analysis_type;size:64"`
	InputSummary string    `gorm:"column:input_summary;type:text"`
	Confidence   float64   `gorm:"column:confidence"`
}

func (AnalysisRow) TableName() string { return "ai_analysis" }

// AllModels returns the warehouse tables managed by Migrate.
func AllModels() []interface{} {
	return []interface{}{
		&EventRow{},
		&AnalysisRow{},
	}
}

func eventRowFrom(e *types.Event) EventRow {
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return EventRow{
		EventID:   string(e.ID),
		Timestamp: e.Timestamp.UTC(),
		AgentID:   e.AgentID,
		EventType: e.Type,
		Source:    e.Source,
		Payload:   datatypes.JSON(payload),
		Processed: e.Processed,
	}
}

func (r EventRow) toEvent() *types.Event {
	return &types.Event{
		ID:        types.EventID(r.EventID),
		Timestamp: r.Timestamp,
		AgentID:   r.AgentID,
		Type:      r.EventType,
		Source:    r.Source,
		Payload:   json.RawMessage(r.Payload),
		Processed: r.Processed,
	}
}

func (r AnalysisRow) toRecord() types.AnalysisRecord {
	return types.AnalysisRecord{
		ID:           types.AnalysisID(r.AnalysisID),
		EventID:      types.EventID(r.EventID),
		Timestamp:    r.Timestamp,
		ModelID:      r.ModelID,
		AnalysisType: r.AnalysisType,
		InputSummary: r.InputSummary,
		Confidence:   r.Confidence,
	}
}
