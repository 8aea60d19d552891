package models

import "time"

// Event types recorded in the memory event log.
const (
	EventCreated          = "CREATED"
	EventUpdated          = "UPDATED"
	EventDeleted          = "DELETED"
	EventEnabled          = "ENABLED"
	EventDisabled         = "DISABLED"
	EventOutputChanged    = "OUTPUT_CHANGED"
	EventResolutionFailed = "RESOLUTION_FAILED"
	EventCommitFailed     = "COMMIT_FAILED"
	EventRecovered        = "RECOVERED"
)

// MemoryEvent is a single log entry about one IfMemory.
type MemoryEvent struct {
	EventID     string    `json:"event_id"`
	MemoryID    string    `json:"memory_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // see Event* constants
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
