package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLog subscribes a structured-log writer to every audited event
// type on the bus.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	for _, eventType := range AuditedEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			logger.InfoContext(ctx, "audit",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}
