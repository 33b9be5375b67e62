package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker refuses publishes.
var ErrCircuitOpen = errors.New("event publisher circuit breaker is open")

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures KafkaPublisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	// Consecutive failures before the breaker opens.
	FailureThreshold uint32
	// How long the breaker stays open before a trial publish.
	OpenTimeout time.Duration
}

// KafkaPublisher writes events to one topic through a circuit breaker.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	onState func(name string, state gobreaker.State)
}

// NewKafkaPublisher builds a synchronous kafka-go writer. onState, when set,
// is told about breaker transitions (the server feeds it into a gauge).
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger, onState func(string, gobreaker.State)) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaPublisher(writer, cfg, logger, onState)
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig, logger *zap.Logger, onState func(string, gobreaker.State)) *KafkaPublisher {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	p := &KafkaPublisher{writer: w, topic: cfg.Topic, logger: logger, onState: onState}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-" + cfg.Topic,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if p.onState != nil {
				p.onState(name, to)
			}
		},
	})
	return p
}

// Publish marshals evt and writes it keyed by warehouse.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   evt.Key(),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(evt.ID)},
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "event-time", Value: []byte(evt.OccurredAt.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: evt.OccurredAt,
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	if err != nil {
		return fmt.Errorf("failed to write event %s to %s: %w", evt.Type, p.topic, err)
	}
	return nil
}

// State reports the breaker state.
func (p *KafkaPublisher) State() gobreaker.State {
	return p.cb.State()
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
