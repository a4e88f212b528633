package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the portal
const (
	EventOnboardingCompleted = "onboarding.completed"
	EventReminderSent        = "reminder.sent"
	EventReminderEscalated   = "reminder.escalated"
)

// Event is the payload published to the topic and to webhook integrations.
type Event struct {
	Name         string     `json:"name"`
	ProjectID    uuid.UUID  `json:"project_id"`
	QuoteID      *uuid.UUID `json:"quote_id,omitempty"`
	ReminderKind string     `json:"reminder_kind,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// Publisher delivers events to downstream integrations. Deliveries are
// best effort: callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events. Used where no topic is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// MultiPublisher fans an event out to several publishers, returning the
// first error after attempting all of them.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
