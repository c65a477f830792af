package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	require.NoError(t, p.Publish(context.Background(), "recs", []byte("p-1"), map[string]float64{"recommendedPrice": 110}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "recs", w.msgs[0].Topic)
	assert.Equal(t, []byte("p-1"), w.msgs[0].Key)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 110.0, got["recommendedPrice"])
}

func TestProducerPublishBatchHeadersAndRaw(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	err := p.PublishBatch(context.Background(), "sales", []Message{
		{Key: []byte("a"), Value: []byte("raw"), Headers: map[string]string{"trace_id": "t-1"}},
		{Key: []byte("b"), Value: "text"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "raw", string(w.msgs[0].Value))
	assert.Equal(t, "t-1", ExtractTraceID(w.msgs[0]))
	assert.Equal(t, "text", string(w.msgs[1].Value))
}

func TestProducerWrapsWriteErrors(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "snappy")
	err := p.PublishMessage(context.Background(), "logs", []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestProducerEmptyBatch(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, "").PublishBatch(context.Background(), "t", nil))
	assert.Empty(t, w.msgs)
}
