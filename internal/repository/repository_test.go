package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ShopPulse/internal/domain/models"
	pkgkafka "ShopPulse/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaSalePublisher(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaSalePublisher(pkgkafka.NewProducerWithWriter(w, "none"), "sales")
	soldAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	sales := []*models.Sale{
		{EventID: "e1", ProductID: "p1", Price: 10, Quantity: 2, SoldAt: soldAt},
		{EventID: "e2", ProductID: "p2", Price: 20, Quantity: 1, SoldAt: soldAt},
	}
	require.NoError(t, pub.PublishBatch(context.Background(), sales))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "sales", w.msgs[0].Topic)
	assert.Equal(t, []byte("p1"), w.msgs[0].Key)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "event_id", w.msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("e1"), w.msgs[0].Headers[0].Value)

	var got models.Sale
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, *sales[1], got)

	require.NoError(t, pub.PublishBatch(context.Background(), nil))
	assert.Len(t, w.msgs, 2)
}

func TestKafkaSalePublisherError(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	pub := NewKafkaSalePublisher(pkgkafka.NewProducerWithWriter(w, "none"), "sales")
	err := pub.Publish(context.Background(), &models.Sale{ProductID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaRecommendationPublisher(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaRecommendationPublisher(pkgkafka.NewProducerWithWriter(w, "none"), "recs")
	ev := models.RecommendationEvent{
		Source:         "sweep",
		Recommendation: models.PriceRecommendation{ProductID: "p9", CurrentPrice: 10, RecommendedPrice: 11},
		ComputedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishRecommendation(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("p9"), w.msgs[0].Key)

	var got models.RecommendationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev, got)
}

func TestInsertQuerySkipsInvalid(t *testing.T) {
	s := &ClickHouseSaleStorage{table: "sales"}
	soldAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q, args := s.insertQuery([]*models.Sale{
		{EventID: "e1", ProductID: "p1", Price: 10, Quantity: 2, SoldAt: soldAt},
		{EventID: "e2", ProductID: "", Price: 10, Quantity: 2, SoldAt: soldAt},
		nil,
		{EventID: "e3", ProductID: "p3", Price: 5, Quantity: 1, SoldAt: soldAt},
	})
	assert.Equal(t, "INSERT INTO sales (event_id, product_id, price, quantity, sold_at) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)", q)
	require.Len(t, args, 10)
	assert.Equal(t, "e1", args[0])
	assert.Equal(t, uint32(2), args[3])
	assert.Equal(t, "e3", args[5])
}

func TestSalesSchema(t *testing.T) {
	stmts := SalesSchema("shoppulse.sales")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS shoppulse.sales")
	assert.Contains(t, stmts[0], "ReplacingMergeTree")
}

func TestDailyPoint(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	p := dailyPoint(day, 99.5, 42)
	assert.Equal(t, models.HistoricalPricePoint{Date: "2024-03-05", Price: 99.5, Sales: 42}, p)
}

func TestHistoryQueryDedupsAndBoundsWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC)
	s := &CHHistoryStore{table: "shoppulse.sales", now: func() time.Time { return now }}

	q, args := s.historyQuery("p1", 30)
	assert.Equal(t, "SELECT toDate(sold_at) AS day, round(avg(price), 2) AS price, sum(quantity) AS sales "+
		"FROM shoppulse.sales FINAL "+
		"WHERE product_id = ? AND sold_at >= ? AND sold_at < ? "+
		"GROUP BY day ORDER BY day ASC", q)
	require.Len(t, args, 3)
	assert.Equal(t, "p1", args[0])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), args[1])
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), args[2])
}
