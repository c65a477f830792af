package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/domain/repository"
	pkgkafka "ShopPulse/pkg/kafka"
)

// SalesSchema returns the DDL for the raw sales table. ReplacingMergeTree on
// event_id collapses redelivered events.
func SalesSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			event_id String,
			product_id String,
			price Float64,
			quantity UInt32,
			sold_at DateTime64(3, 'UTC'),
			ingested_at DateTime64(3, 'UTC') DEFAULT now64(3)
		) ENGINE = ReplacingMergeTree(ingested_at)
		PARTITION BY toYYYYMM(sold_at)
		ORDER BY (product_id, sold_at, event_id)`, table),
	}
}

// ClickHouseSaleStorage implements SaleStorage for ClickHouse.
type ClickHouseSaleStorage struct {
	db    *sql.DB
	table string
}

func NewClickHouseSaleStorage(db *sql.DB, table string) repository.SaleStorage {
	return &ClickHouseSaleStorage{db: db, table: table}
}

func (s *ClickHouseSaleStorage) Store(ctx context.Context, sale *models.Sale) error {
	return s.StoreBatch(ctx, []*models.Sale{sale})
}

func (s *ClickHouseSaleStorage) StoreBatch(ctx context.Context, sales []*models.Sale) error {
	const chunkSize = 2000
	for start := 0; start < len(sales); start += chunkSize {
		end := start + chunkSize
		if end > len(sales) {
			end = len(sales)
		}
		q, args := s.insertQuery(sales[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert sales: %w", err)
		}
	}
	return nil
}

// insertQuery builds a multi-row insert, skipping invalid sales.
func (s *ClickHouseSaleStorage) insertQuery(sales []*models.Sale) (string, []interface{}) {
	values := make([]string, 0, len(sales))
	args := make([]interface{}, 0, len(sales)*5)
	for _, sale := range sales {
		if sale.Validate() != nil {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, sale.EventID, sale.ProductID, sale.Price, uint32(sale.Quantity), sale.SoldAt.UTC())
	}
	q := fmt.Sprintf("INSERT INTO %s (event_id, product_id, price, quantity, sold_at) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func (s *ClickHouseSaleStorage) Query(ctx context.Context, productID string, from, to time.Time, limit int) ([]*models.Sale, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT event_id, product_id, price, quantity, sold_at FROM %s
		WHERE product_id = ? AND sold_at >= ? AND sold_at <= ? ORDER BY sold_at DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, productID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		var (
			sale models.Sale
			qty  uint32
		)
		if err := rows.Scan(&sale.EventID, &sale.ProductID, &sale.Price, &qty, &sale.SoldAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sale.Quantity = int(qty)
		sales = append(sales, &sale)
	}
	return sales, rows.Err()
}

func (s *ClickHouseSaleStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSaleStorage) Close() error {
	return nil // pool owned by pkg/clickhouse
}

// KafkaSalePublisher implements SalePublisher for Kafka, keyed by product.
type KafkaSalePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSalePublisher(producer *pkgkafka.Producer, topic string) repository.SalePublisher {
	return &KafkaSalePublisher{producer: producer, topic: topic}
}

func (p *KafkaSalePublisher) Publish(ctx context.Context, s *models.Sale) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.ProductID), s)
}

func (p *KafkaSalePublisher) PublishBatch(ctx context.Context, sales []*models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(sales))
	for i, s := range sales {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(s.ProductID),
			Value:   s,
			Headers: map[string]string{"event_id": s.EventID},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSalePublisher) Close() error {
	return nil // producer owned by the app
}

// KafkaRecommendationPublisher publishes recommendation events keyed by product.
type KafkaRecommendationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ repository.RecommendationPublisher = (*KafkaRecommendationPublisher)(nil)

func NewKafkaRecommendationPublisher(producer *pkgkafka.Producer, topic string) *KafkaRecommendationPublisher {
	return &KafkaRecommendationPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecommendationPublisher) PublishRecommendation(ctx context.Context, ev models.RecommendationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Recommendation.ProductID), ev)
}
