package entity

import "time"

// AuditEntry is one line of a record's append-only history.
// Entries are never mutated or deleted once written.
type AuditEntry struct {
	ID             int64     `json:"id"`
	RecordID       int64     `json:"record_id"`
	ActorID        string    `json:"actor_id"`
	EventType      string    `json:"event_type"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Details        string    `json:"details,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
