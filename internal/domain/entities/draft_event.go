package entities

import "time"

// DraftEventType identifies a draft lifecycle transition.
type DraftEventType string

const (
	DraftEventProcessing DraftEventType = "draft.processing"
	DraftEventCompleted  DraftEventType = "draft.completed"
	DraftEventFailed     DraftEventType = "draft.failed"
)

// DraftEvent is published on the event bus whenever a job changes status.
// Publication is best-effort; consumers must tolerate gaps.
type DraftEvent struct {
	ID        string         `json:"id"`
	JobID     string         `json:"job_id"`
	Type      DraftEventType `json:"type"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
