/*
Package events hands booking snapshots to the booking collaborator.

PURPOSE:
  A confirmed booking is never stored by this service. It is published as a
  BookingEvent, keyed by the snapshot id, and whoever consumes the topic
  owns it from then on.

PUBLISHERS:
  Producer:     Kafka via a sarama SyncProducer (KAFKA_ENABLED=true)
  LogPublisher: structured log line, for local runs without a broker

SEE ALSO:
  - pricing/booking.go: NewBookingSnapshot
  - api/handlers.go: SubmitBooking
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/petguardian/quote-engine/config"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/logger"
	"github.com/petguardian/quote-engine/pricing"
)

// Publisher accepts booking snapshots.
type Publisher interface {
	PublishBooking(ctx context.Context, s pricing.BookingSnapshot) error
	Close() error
}

// =============================================================================
// KAFKA
// =============================================================================

// Producer publishes booking events to Kafka.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topic    string
}

// NewProducer connects a synchronous producer to cfg.Brokers.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer connected")
	return &Producer{producer: producer, log: log, topic: cfg.TopicBookings}, nil
}

// PublishBooking sends one BookingEvent. Failures wrap generic.ErrPublishFailed.
func (p *Producer) PublishBooking(ctx context.Context, s pricing.BookingSnapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrPublishFailed, err)
	}
	return p.publishEvent(p.topic, NewBookingEvent(s))
}

func (p *Producer) publishEvent(topic string, event BookingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal event: %v", generic.ErrPublishFailed, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.Booking.ID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.WithError(err).WithField("booking_id", event.Booking.ID).Error("Failed to publish booking")
		return fmt.Errorf("%w: %v", generic.ErrPublishFailed, err)
	}

	p.log.WithFields(map[string]interface{}{
		"booking_id": event.Booking.ID,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Info("Booking published")
	return nil
}

// Close closes the producer. Safe on nil and zero values.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// =============================================================================
// LOG ONLY
// =============================================================================

// LogPublisher writes the booking event to the log instead of a broker.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishBooking(_ context.Context, s pricing.BookingSnapshot) error {
	data, err := json.Marshal(NewBookingEvent(s))
	if err != nil {
		return fmt.Errorf("%w: %v", generic.ErrPublishFailed, err)
	}
	p.log.WithField("booking_id", s.ID).WithField("event", string(data)).Info("Booking submitted (no broker configured)")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
