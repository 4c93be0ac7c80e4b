package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/sse"
)

// SessionNotifier is the core's only view of the transport layer: it
// publishes to a session's channel and never reports delivery failures
// back to the caller.
type SessionNotifier interface {
	PublishSessionUpdate(ctx context.Context, sessionID uuid.UUID, data map[string]any)
	PublishError(ctx context.Context, sessionID uuid.UUID, message string)
}

type hubNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus SSEBus // optional; nil means local-only delivery
}

func NewSessionNotifier(log *logger.Logger, hub *sse.Hub, bus SSEBus) SessionNotifier {
	return &hubNotifier{
		log: log.With("service", "SessionNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *hubNotifier) PublishSessionUpdate(ctx context.Context, sessionID uuid.UUID, data map[string]any) {
	n.publish(ctx, sse.Message{
		Channel: sessionID.String(),
		Event:   sse.EventSessionUpdate,
		Data:    data,
	})
}

func (n *hubNotifier) PublishError(ctx context.Context, sessionID uuid.UUID, message string) {
	n.publish(ctx, sse.Message{
		Channel: sessionID.String(),
		Event:   sse.EventError,
		Data: map[string]any{
			"session_id": sessionID.String(),
			"error":      message,
		},
	})
}

func (n *hubNotifier) publish(ctx context.Context, msg sse.Message) {
	if n.bus != nil {
		// The bus forwarder feeds the local hub, so a published message
		// reaches local subscribers too.
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("Bus publish failed, falling back to local hub", "channel", msg.Channel, "error", err)
			n.hub.Broadcast(msg)
		}
		return
	}
	n.hub.Broadcast(msg)
}
