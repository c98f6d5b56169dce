package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"alertcast/internal/alert/events"
	"alertcast/internal/platform/config"
)

// ErrPublisherClosed is returned for publishes after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher writes lifecycle events to a Kafka topic, keyed by alert id so
// per-alert ordering is preserved within a partition.
type Publisher struct {
	writer     *kafka.Writer
	maxRetries int
	backoff    time.Duration
	closed     bool
}

// NewPublisher builds a Kafka-backed event publisher. Returns nil if no
// brokers are configured (events disabled).
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition by alert id
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &Publisher{
		writer:     writer,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}, nil
}

// Publish serializes the event and writes it with exponential backoff retry.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if p.closed {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AlertID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(string(event.Type))},
		},
		Time: event.OccurredAt,
	}

	var lastErr error
	backoff := p.backoff
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("publish failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
