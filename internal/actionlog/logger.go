// Package actionlog appends structured action records to the event log.
package actionlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/user/datalake/internal/types"
)

// Logger writes exactly one event per Log call.
type Logger struct {
	sink   types.EventSink
	logger *slog.Logger
	now    func() time.Time
	newID  func() types.EventID
}

// New creates an action logger over sink.
func New(sink types.EventSink, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		sink:   sink,
		logger: logger,
		now:    time.Now,
		newID:  types.NewEventID,
	}
}

// Log never returns an error. The id and timestamp are chosen before the
// write and are returned whether or not it succeeds.
func (l *Logger) Log(ctx context.Context, req types.ActionRequest) types.ActionResult {
	id := l.newID()
	ts := l.now().UTC()
	res := types.ActionResult{EventID: id, Timestamp: ts}

	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	} else if !json.Valid(payload) {
		err := types.Errorf(types.KindWrite, "actionlog", "payload is not valid JSON")
		l.logger.Warn("action not logged", "event_id", id, "error", err)
		res.Error = err.Error()
		return res
	}

	event := &types.Event{
		ID:        id,
		Timestamp: ts,
		AgentID:   req.AgentID,
		Type:      req.EventType,
		Source:    req.Source,
		Payload:   payload,
		Processed: req.Processed,
	}

	if err := l.sink.AppendEvent(ctx, event); err != nil {
		if types.KindOf(err) == "" {
			err = types.Wrap(types.KindWrite, "actionlog", err)
		}
		l.logger.Warn("action not logged",
			"event_id", id,
			"event_type", req.EventType,
			"error", err,
		)
		res.Error = err.Error()
		return res
	}

	l.logger.Info("action logged",
		"event_id", id,
		"agent_id", req.AgentID,
		"event_type", req.EventType,
		"source", req.Source,
	)
	res.Success = true
	return res
}
