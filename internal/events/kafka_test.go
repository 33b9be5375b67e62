package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, KafkaConfig{Topic: "inventory.events"}, zap.NewNop(), nil)

	evt := New(StockPicked, 7, 3, map[string]int64{"quantity": 6})
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("7"), msg.Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, StockPicked, decoded.Type)
	assert.Equal(t, 3, decoded.ActorID)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, StockPicked, headers["event-type"])
	assert.Equal(t, evt.ID, headers["event-id"])
}

func TestKafkaPublisher_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	var states []gobreaker.State
	p := newKafkaPublisher(w, KafkaConfig{Topic: "t", FailureThreshold: 2, OpenTimeout: time.Minute}, zap.NewNop(),
		func(_ string, s gobreaker.State) { states = append(states, s) })

	ctx := context.Background()
	evt := New(OrderApproved, 1, 1, nil)

	assert.Error(t, p.Publish(ctx, evt))
	assert.Error(t, p.Publish(ctx, evt))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(ctx, evt)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, states)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(BinCreated, 1, 1, nil)))
	assert.NoError(t, p.Close())
}
