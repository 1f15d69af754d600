// Package events publishes session lifecycle events for downstream consumers
// such as audit logging. Token values are never part of an event.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeSessionOpened = "session.opened"
	TypeSessionClosed = "session.closed"
	TypeLoginFailed   = "login.failed"
)

// Event is a single session lifecycle notification
type Event struct {
	Type       string    `json:"type"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event stamped with the current time
func New(eventType, username string) Event {
	return Event{
		Type:       eventType,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}

// PublishBestEffort publishes event and logs instead of returning failures
func PublishBestEffort(ctx context.Context, p Publisher, logger *slog.Logger, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish session event",
			"type", event.Type,
			"username", event.Username,
			"error", err.Error(),
		)
	}
}
