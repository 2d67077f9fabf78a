package cmd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EO-DataHub/eodhp-echo-service/internal/events"
	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	pulsar.Message
	key     string
	payload []byte
}

func (m *testMessage) Key() string     { return m.key }
func (m *testMessage) Payload() []byte { return m.payload }

type receiveResult struct {
	msg pulsar.Message
	err error
}

// scriptedSource replays results in order and then reports the consumer closed.
type scriptedSource struct {
	mu      sync.Mutex
	results []receiveResult
	acked   []pulsar.Message
	nacked  []pulsar.Message
}

func (s *scriptedSource) ReceiveMessage(ctx context.Context) (pulsar.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil, events.ErrConsumerClosed
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next.msg, next.err
}

func (s *scriptedSource) Ack(msg pulsar.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, msg)
}

func (s *scriptedSource) Nack(msg pulsar.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nacked = append(s.nacked, msg)
}

// countingBackOff hands out a fixed delay and counts how it is used.
type countingBackOff struct {
	delay  time.Duration
	calls  int
	resets int
}

func (b *countingBackOff) NextBackOff() time.Duration {
	b.calls++
	return b.delay
}

func (b *countingBackOff) Reset() { b.resets++ }

func TestConsumeSubmissions_StopsWhenConsumerClosed(t *testing.T) {
	source := &scriptedSource{}
	retry := &countingBackOff{delay: time.Millisecond}

	err := consumeSubmissions(context.Background(), source, retry)

	assert.ErrorIs(t, err, events.ErrConsumerClosed)
	assert.Zero(t, retry.calls)
}

func TestConsumeSubmissions_BacksOffOnReceiveError(t *testing.T) {
	brokerDown := errors.New("connection refused")
	source := &scriptedSource{results: []receiveResult{
		{err: brokerDown},
		{err: brokerDown},
		{err: brokerDown},
	}}
	retry := &countingBackOff{delay: time.Millisecond}

	err := consumeSubmissions(context.Background(), source, retry)

	assert.ErrorIs(t, err, events.ErrConsumerClosed)
	assert.Equal(t, 3, retry.calls)
}

func TestConsumeSubmissions_GivesUpWhenBackOffStops(t *testing.T) {
	brokerDown := errors.New("connection refused")
	source := &scriptedSource{results: []receiveResult{{err: brokerDown}}}

	err := consumeSubmissions(context.Background(), source, &backoff.StopBackOff{})

	assert.ErrorIs(t, err, brokerDown)
}

func TestConsumeSubmissions_CancelDuringBackOff(t *testing.T) {
	source := &scriptedSource{results: []receiveResult{{err: errors.New("connection refused")}}}
	retry := &countingBackOff{delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- consumeSubmissions(ctx, source, retry) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer loop did not stop after cancel")
	}
}

func TestConsumeSubmissions_AcksDecodedAndNacksUndecodable(t *testing.T) {
	good := &testMessage{
		key:     "b5f0c4de-8a4b-4f8e-9a8e-0a3c1f6f2d11",
		payload: []byte(`{"id":"b5f0c4de-8a4b-4f8e-9a8e-0a3c1f6f2d11","receivedAt":"2024-01-02T03:04:05Z","payload":{"key":"value"}}`),
	}
	bad := &testMessage{key: "broken", payload: []byte(`not json`)}
	source := &scriptedSource{results: []receiveResult{{msg: good}, {msg: bad}}}
	retry := &countingBackOff{delay: time.Millisecond}

	err := consumeSubmissions(context.Background(), source, retry)

	require.ErrorIs(t, err, events.ErrConsumerClosed)
	assert.Equal(t, []pulsar.Message{good}, source.acked)
	assert.Equal(t, []pulsar.Message{bad}, source.nacked)
	assert.Equal(t, 2, retry.resets)
}
