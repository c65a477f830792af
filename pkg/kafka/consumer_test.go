package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type countingHandler struct {
	failures int
	calls    int
	lastCtx  context.Context
}

func (h *countingHandler) Topic() string { return "sales" }

func (h *countingHandler) Handle(ctx context.Context, _ []byte) error {
	h.calls++
	h.lastCtx = ctx
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	opts = append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	}, opts...)
	c, err := NewConsumer(opts...)
	require.NoError(t, err)
	return c
}

func TestHandleMessageRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{failures: 2}

	err := c.handleMessage(h, &message{topic: "sales", data: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestHandleMessageParksOnDLQ(t *testing.T) {
	c := newTestConsumer(t, WithConsumerDLQ("sales.dlq"))
	dlq := &fakeWriter{}
	c.dlq = dlq
	h := &countingHandler{failures: 10}

	err := c.handleMessage(h, &message{topic: "sales", data: []byte(`{"x":1}`), km: kafka.Message{Key: []byte("p-1")}})
	require.Error(t, err)
	assert.Equal(t, 3, h.calls)

	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "sales.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, []byte("p-1"), dlq.msgs[0].Key)
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
	assert.Equal(t, "sales", string(dlq.msgs[0].Headers[0].Value))
}

func TestHookRejectionSkipsRetries(t *testing.T) {
	c := newTestConsumer(t)
	var onErr int
	c.WithConsumerHook(HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, data, &HookError{Code: "ERR_VALIDATION"}
		},
		Err: func(context.Context, string, kafka.Message, []byte, error) { onErr++ },
	})
	h := &countingHandler{}

	err := c.handleMessage(h, &message{topic: "sales"})
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_VALIDATION", he.Code)
	assert.Equal(t, 0, h.calls)
	assert.Equal(t, 1, onErr)
}

func TestTraceHookPropagatesHeader(t *testing.T) {
	c := newTestConsumer(t)
	c.WithConsumerHook(NewHookChain(nil, TraceHook{}))
	h := &countingHandler{}

	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	require.NoError(t, c.handleMessage(h, &message{topic: "sales", km: km}))
	assert.Equal(t, "abc", TraceID(h.lastCtx))
}

func TestHookChainRecoversPanics(t *testing.T) {
	chain := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("again") },
	})
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.NotPanics(t, func() { chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil) })
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
	assert.LessOrEqual(t, backoffWithJitter(10*time.Millisecond, time.Second, 1), 10*time.Millisecond)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)
}
