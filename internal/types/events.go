package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventDocumentReviewed EventType = "document.reviewed"
	EventMediaOrphaned    EventType = "media.orphaned"
	EventMediaPurged      EventType = "media.purged"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// DocumentReviewedEvent tells an uploader their material was published or rejected.
type DocumentReviewedEvent struct {
	Kind            string `json:"kind"`
	DocumentID      string `json:"document_id"`
	Status          string `json:"status"`
	ReviewerID      string `json:"reviewer_id"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	ReviewedAt      string `json:"reviewed_at"`
}

// MediaLifecycleEvent reports a media object leaving the active state.
type MediaLifecycleEvent struct {
	MediaID      string `json:"media_id"`
	OriginalName string `json:"original_name"`
	Status       string `json:"status"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
