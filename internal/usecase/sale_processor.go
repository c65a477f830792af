package usecase

import (
	"context"
	"fmt"
	"time"

	"ShopPulse/internal/domain/models"
	drepo "ShopPulse/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// SaleProcessor routes sales to the configured backend.
type SaleProcessor struct {
	pub     drepo.SalePublisher
	store   drepo.SaleStorage
	metrics drepo.Metrics
	backend string
}

func NewSaleProcessor(pub drepo.SalePublisher, store drepo.SaleStorage, metrics drepo.Metrics, backend string) *SaleProcessor {
	return &SaleProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single sale to the configured backend.
func (p *SaleProcessor) Process(ctx context.Context, s *models.Sale) error {
	if s == nil {
		return fmt.Errorf("sale is nil")
	}

	start := time.Now()
	var err error
	switch {
	case p.backend == BackendKafka && p.pub != nil:
		err = p.pub.Publish(ctx, s)
	case p.backend == BackendClickHouse && p.store != nil:
		err = p.store.Store(ctx, s)
	default:
		err = fmt.Errorf("backend %q not available", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process sale: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, "sale")
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple sales in one call.
func (p *SaleProcessor) ProcessBatch(ctx context.Context, sales []*models.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch {
	case p.backend == BackendKafka && p.pub != nil:
		err = p.pub.PublishBatch(ctx, sales)
	case p.backend == BackendClickHouse && p.store != nil:
		err = p.store.StoreBatch(ctx, sales)
	default:
		err = fmt.Errorf("backend %q not available", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for range sales {
		p.metrics.RecordMessageSent(p.backend, "sale")
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *SaleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
