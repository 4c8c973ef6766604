package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// Event represents a domain event emitted by the workflow engine
type Event struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	EntityID      int64          `json:"entity_id"`
	Kind          workflow.Kind  `json:"kind"`
	Payload       map[string]any `json:"payload"`
	Timestamp     time.Time      `json:"timestamp"`
	CorrelationID string         `json:"correlation_id"`
}

// New creates a new domain event with auto-generated ID and timestamp
func New(eventType Type, kind workflow.Kind, entityID int64, payload map[string]any) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		EntityID:      entityID,
		Kind:          kind,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewWithCorrelation creates an event linked to a correlation chain
func NewWithCorrelation(eventType Type, kind workflow.Kind, entityID int64, payload map[string]any, correlationID string) *Event {
	evt := New(eventType, kind, entityID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
