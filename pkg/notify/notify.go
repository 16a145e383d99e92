// Package notify publishes domain events (order and quote lifecycle, inbox
// activity) for downstream consumers such as the mailer.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event types.
const (
	OrderCreated        = "order.created"
	OrderStatusChanged  = "order.status_changed"
	OrderPaymentChanged = "order.payment_changed"
	QuoteRequested      = "quote.requested"
	QuoteStatusChanged  = "quote.status_changed"
	QuoteResponded      = "quote.responded"
	QuoteConverted      = "quote.converted"
	MessageReceived     = "message.received"
	MessageReplied      = "message.replied"
	CustomerRegistered  = "customer.registered"
)

type Event struct {
	Type       string         `json:"type"`
	Entity     string         `json:"entity"`
	EntityID   uint           `json:"entityId"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LogPublisher writes events to the log. It is the fallback when no broker
// is configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	p.log.InfoContext(ctx, "event", "type", ev.Type, "entity", ev.Entity, "entity_id", ev.EntityID)
	return nil
}

// Send publishes ev and logs instead of failing: notifications never undo
// a committed write.
func Send(ctx context.Context, p Publisher, log *slog.Logger, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.WarnContext(ctx, "publish event failed", "type", ev.Type, "entity_id", ev.EntityID, "error", err)
	}
}
