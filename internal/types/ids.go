// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

type EventID string
type AnalysisID string
type RequestID string

func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}
