package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event emitted after a committed workflow action
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	RecordID   int64                  `json:"record_id"`
	RecordCode string                 `json:"record_code"`
	ActorID    string                 `json:"actor_id"`
	Payload    map[string]interface{} `json:"payload"`
	Timestamp  time.Time              `json:"timestamp"`
}

// New creates a domain event with an auto-generated ID and timestamp
func New(eventType Type, recordID int64, recordCode, actorID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		RecordID:   recordID,
		RecordCode: recordCode,
		ActorID:    actorID,
		Payload:    payload,
		Timestamp:  time.Now(),
	}
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// PayloadInt retrieves an int64 value from the payload
func (e *Event) PayloadInt(key string) int64 {
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
