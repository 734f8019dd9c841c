package service

import (
	"context"

	"github.com/garyjia/approval-flow/internal/application/dispatcher"
	"github.com/garyjia/approval-flow/internal/domain/event"
)

// NewAuditLogHandler returns an event handler that writes every workflow
// event to the structured log, giving operators a flat audit stream without
// querying the decision table.
func NewAuditLogHandler(logger Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Info("Workflow event",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"item_id", evt.ItemID,
			"kind", evt.GetPayloadString("kind"),
			"status", evt.GetPayloadString("status"),
			"actor_id", evt.GetPayloadString("actor_id"),
			"reason", evt.GetPayloadString("reason"),
		)
		return nil
	}
}

// RegisterAuditLog subscribes the audit handler to every workflow event type
func RegisterAuditLog(d dispatcher.Dispatcher, logger Logger) {
	handler := NewAuditLogHandler(logger)
	for _, t := range []event.Type{
		event.TypeItemCreated,
		event.TypeItemSubmitted,
		event.TypeItemApproved,
		event.TypeItemRejected,
	} {
		d.Subscribe(t, "audit-log", handler)
	}
}
