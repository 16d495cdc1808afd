package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	fetched   []int64
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		r.mu.Lock()
		if len(r.pending) > 0 {
			msg := r.pending[0]
			r.pending = r.pending[1:]
			r.fetched = append(r.fetched, msg.Offset)
			r.mu.Unlock()
			return msg, nil
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func (r *fakeReader) fetches() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.fetched...)
}

func messages(n int) []kafka.Message {
	msgs := make([]kafka.Message, n)
	for i := range msgs {
		msgs[i] = kafka.Message{Topic: "card-submissions", Offset: int64(i), Value: []byte(fmt.Sprintf(`{"n":%d}`, i))}
	}
	return msgs
}

func startConsumer(t *testing.T, reader *fakeReader, handler MessageHandler) *Consumer {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	c := newConsumer(reader, ConsumerConfig{
		Topic:           "card-submissions",
		ConsumerGroup:   "fern",
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 5 * time.Millisecond,
	}, logger, handler)
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestConsumer_RetriesInPlace(t *testing.T) {
	reader := &fakeReader{pending: messages(2)}

	var mu sync.Mutex
	attempts := map[int64]int{}
	var order []int64
	c := startConsumer(t, reader, func(_ context.Context, msg *IncomingMessage) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[msg.Offset]++
		order = append(order, msg.Offset)
		if msg.Offset == 0 && attempts[0] < 3 {
			return errors.New("catalog unavailable")
		}
		return nil
	})

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Equal(t, []int64{0, 1}, reader.commits())
	assert.Equal(t, []int64{0, 1}, reader.fetches())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts[0])
	assert.Equal(t, 1, attempts[1])
	assert.Equal(t, []int64{0, 0, 0, 1}, order)
}

func TestConsumer_PermanentErrorCommits(t *testing.T) {
	reader := &fakeReader{pending: messages(2)}

	var mu sync.Mutex
	attempts := map[int64]int{}
	c := startConsumer(t, reader, func(_ context.Context, msg *IncomingMessage) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[msg.Offset]++
		if msg.Offset == 0 {
			return fmt.Errorf("%w: bad payload", ErrPermanent)
		}
		return nil
	})

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Equal(t, []int64{0, 1}, reader.commits())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts[0])
}

func TestConsumer_StopDuringRetryDoesNotCommit(t *testing.T) {
	reader := &fakeReader{pending: messages(2)}

	failing := make(chan struct{}, 1)
	c := startConsumer(t, reader, func(_ context.Context, _ *IncomingMessage) error {
		select {
		case failing <- struct{}{}:
		default:
		}
		return errors.New("publish failed")
	})

	select {
	case <-failing:
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
	require.NoError(t, c.Stop())

	assert.Empty(t, reader.commits())
	assert.Equal(t, []int64{0}, reader.fetches())
}
