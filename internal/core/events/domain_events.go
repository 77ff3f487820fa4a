package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReservationCreated   = "reservation.created"
	EventTypeReservationUpdated   = "reservation.updated"
	EventTypeReservationCancelled = "reservation.cancelled"

	EventTypeArticleSubmitted = "article.submitted"
	EventTypeArticlePublished = "article.published"
	EventTypeArticleRejected  = "article.rejected"

	EventTypeFileUploaded = "file.uploaded"
	EventTypeFileDeleted  = "file.deleted"

	EventTypeRefreshTokenReused = "auth.refresh_token_reused"
)

// AuditedEventTypes lists every event type the audit subscriber records.
var AuditedEventTypes = []string{
	EventTypeReservationCreated,
	EventTypeReservationUpdated,
	EventTypeReservationCancelled,
	EventTypeArticleSubmitted,
	EventTypeArticlePublished,
	EventTypeArticleRejected,
	EventTypeFileUploaded,
	EventTypeFileDeleted,
	EventTypeRefreshTokenReused,
}

// DomainEvent records a state change on one aggregate made by one actor.
type DomainEvent struct {
	BaseEvent
	AggregateID int64 `json:"aggregate_id"`
	ActorID     int64 `json:"actor_id"`
}

func NewDomainEvent(eventType string, aggregateID, actorID int64, data map[string]interface{}) *DomainEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["aggregate_id"] = aggregateID
	data["actor_id"] = actorID

	return &DomainEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		AggregateID: aggregateID,
		ActorID:     actorID,
	}
}
