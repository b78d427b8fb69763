package events

import (
	"time"

	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishDocumentReviewed(doc *documents.Document) error
	PublishMediaLifecycle(obj *media.MediaObject) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishDocumentReviewed tells the uploader their material was published or rejected.
func (p *EventPublisher) PublishDocumentReviewed(doc *documents.Document) error {
	if doc.ApprovedBy == nil || *doc.ApprovedBy == doc.UploadedBy {
		return nil
	}
	if !p.hub.IsUserConnected(doc.UploadedBy) {
		return nil
	}

	eventData := &types.DocumentReviewedEvent{
		Kind:       string(doc.Kind),
		DocumentID: doc.ID,
		Status:     string(doc.Status),
		ReviewerID: *doc.ApprovedBy,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if doc.ApprovedAt != nil {
		eventData.ReviewedAt = doc.ApprovedAt.UTC().Format(time.RFC3339)
	}
	if doc.RejectionReason != nil {
		eventData.RejectionReason = *doc.RejectionReason
	}

	p.hub.BroadcastToUser(doc.UploadedBy, types.NewEvent(types.EventDocumentReviewed, eventData))
	return nil
}

// PublishMediaLifecycle tells the uploader their file was orphaned or purged.
func (p *EventPublisher) PublishMediaLifecycle(obj *media.MediaObject) error {
	var eventType types.EventType
	switch obj.Status {
	case media.StatusOrphaned:
		eventType = types.EventMediaOrphaned
	case media.StatusDeleted:
		eventType = types.EventMediaPurged
	default:
		return nil
	}
	if !p.hub.IsUserConnected(obj.UploadedBy) {
		return nil
	}

	p.hub.BroadcastToUser(obj.UploadedBy, types.NewEvent(eventType, &types.MediaLifecycleEvent{
		MediaID:      obj.ID,
		OriginalName: obj.OriginalName,
		Status:       string(obj.Status),
	}))
	return nil
}
