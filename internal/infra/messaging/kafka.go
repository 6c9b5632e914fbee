package messaging

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

const (
	headerEventType = "event-type"
	headerEventID   = "event-id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outbox events synchronously so the relay only marks
// what the brokers acknowledged.
type KafkaPublisher struct {
	w      messageWriter
	logger *slog.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaPublisher(w *kafka.Writer, logger *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w:      w,
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []shared.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(events))
	for i, evt := range events {
		msgs[i] = toMessage(evt)
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish events", "count", len(msgs), "error", err.Error())
		return errs.Wrap(err, "kafka write failed")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Keyed by aggregate so every event of one booking lands on one partition.
func toMessage(evt shared.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(evt.AggregateID.String()),
		Value: evt.Payload,
		Time:  evt.CreatedAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(evt.EventType)},
			{Key: headerEventID, Value: []byte(evt.ID.String())},
		},
	}
}
