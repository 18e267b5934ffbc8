// internal/notify/notify.go
package notify

import (
	"context"
	"log/slog"
	"time"
)

// EventType names what happened.
type EventType string

const (
	EventApplicationCreated    EventType = "application.created"
	EventApplicationTransition EventType = "application.transitioned"
	EventQuoteSubmitted        EventType = "quote.submitted"
	EventQuoteAccepted         EventType = "quote.accepted"
	EventQuoteRejected         EventType = "quote.rejected"
	EventQuotesExpired         EventType = "quote.expired"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type          EventType         `json:"event_type"`
	ApplicationID string            `json:"application_id,omitempty"`
	OwnerID       string            `json:"owner_id,omitempty"`
	QuoteID       string            `json:"quote_id,omitempty"`
	FromStatus    string            `json:"from_status,omitempty"`
	ToStatus      string            `json:"to_status,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Dispatcher delivers events to whatever sends emails, SMS or push messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// DispatchTimeout bounds how long Send waits for a dispatcher.
const DispatchTimeout = 2 * time.Second

// Send dispatches event synchronously and only logs a failure. A committed change is never
// undone because its notification could not be delivered.
// The dispatch keeps the values of ctx but not its cancellation, and is cut off after
// DispatchTimeout so a slow broker delays the caller by at most that much.
func Send(ctx context.Context, d Dispatcher, event Event) {
	if d == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DispatchTimeout)
	defer cancel()
	if err := d.Dispatch(dispatchCtx, event); err != nil {
		slog.WarnContext(ctx, "notification dispatch failed",
			"event_type", event.Type,
			"application_id", event.ApplicationID,
			"error", err,
		)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) error { return nil }

// LogDispatcher writes events to a slog logger.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher. A nil logger means slog.Default().
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.logger.InfoContext(ctx, "event",
		"event_type", event.Type,
		"application_id", event.ApplicationID,
		"owner_id", event.OwnerID,
		"quote_id", event.QuoteID,
		"from_status", event.FromStatus,
		"to_status", event.ToStatus,
		"actor_id", event.ActorID,
	)
	return nil
}
