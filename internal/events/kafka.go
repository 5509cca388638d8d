package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka event mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink mirrors broker events to a Kafka topic, keyed by token address.
type KafkaSink struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaWriter builds a synchronous writer for the given brokers.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

func NewKafkaSink(w MessageWriter, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{
		writer: w,
		topic:  topic,
		logger: logger.With("component", "kafka-sink", "topic", topic),
	}
}

// Write sends one event.
func (s *KafkaSink) Write(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.Address),
		Value: data,
		Time:  evt.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Run subscribes to the broker and forwards events until ctx is done or the
// broker closes. Write failures are logged and the event is skipped.
func (s *KafkaSink) Run(ctx context.Context, b *Broker) {
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	s.logger.Info("kafka sink started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("kafka sink stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Write(ctx, evt); err != nil {
				s.logger.Warn("dropping event", "event_id", evt.ID, "type", evt.Type, "error", err)
			}
		}
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
