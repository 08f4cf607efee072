package todos

import "time"

// Event types emitted after successful writes.
const (
	EventCreated = "RECORD_CREATED"
	EventUpdated = "RECORD_UPDATED"
	EventDeleted = "RECORD_DELETED"
)

// Event is the payload sent from API -> SQS -> Worker.
type Event struct {
	Type          string    `json:"type"`
	RecordID      string    `json:"record_id"`
	HasAttachment bool      `json:"has_attachment"`
	OccurredAt    time.Time `json:"occurred_at"`
}
