package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/pkg/kafka"
	"github.com/mediasearch/similarity-service/pkg/resilience"
)

// EventPublisher publishes catalog change events to Kafka behind a circuit
// breaker. Publishing is best-effort: a dead broker degrades index
// freshness, never catalog writes.
type EventPublisher struct {
	producer *kafka.Producer
	breaker  *resilience.CircuitBreaker
	logger   *slog.Logger
}

// NewEventPublisher creates an EventPublisher for the catalog-events topic
// producer.
func NewEventPublisher(producer *kafka.Producer) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker("catalog-events", resilience.CircuitBreakerConfig{}),
		logger:   slog.Default().With("component", "event-publisher"),
	}
}

// PublishChange emits a ChangeEvent for the given mutation.
func (p *EventPublisher) PublishChange(ctx context.Context, eventType string, recordID int64) {
	event := catalog.ChangeEvent{
		Type:       eventType,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	err := p.breaker.Execute(func() error {
		return p.producer.Publish(ctx, kafka.Event{
			Key:   strconv.FormatInt(recordID, 10),
			Value: event,
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			p.logger.Warn("change event skipped, breaker open", "type", eventType, "record_id", recordID)
			return
		}
		p.logger.Error("failed to publish change event",
			"type", eventType,
			"record_id", recordID,
			"error", err,
		)
	}
}
