package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/commerce-notifier/internal/models"
)

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// SyncProducer captures the subset of producer behaviour required by the publisher.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// ErrProducerNotInitialised exposes the sentinel error for callers and tests.
func ErrProducerNotInitialised() error {
	return errProducerNotInitialised
}

// NotificationPublisher emits notification outcome events to a Kafka topic.
type NotificationPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewNotificationPublisher constructs a NotificationPublisher. It returns nil
// when prod is nil.
func NewNotificationPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *NotificationPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &NotificationPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
	}
}

// PublishNotification writes event to Kafka synchronously, keyed by order
// number so all events of one order land on the same partition.
func (p *NotificationPublisher) PublishNotification(_ context.Context, event models.NotificationEvent) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal notification event: %w", err)
	}

	key := event.OrderNumber
	if key == "" {
		key = event.ID
	}
	headers := map[string][]byte{
		"content-type": []byte("application/json"),
		"event-type":   []byte(event.EventType),
	}

	if err := p.producer.PublishSync(p.topic, []byte(key), headers, payload); err != nil {
		return fmt.Errorf("kafka publisher: publish notification event: %w", err)
	}
	p.logger.Debug().
		Str("topic", p.topic).
		Str("notification_id", event.ID).
		Str("outcome", event.Outcome).
		Msg("notification event published")
	return nil
}
