package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	pkgkafka "ShopPulse/pkg/kafka"
)

// KafkaSalesHandler consumes sale events and writes them to storage.
type KafkaSalesHandler struct {
	topic   string
	storage domrepo.SaleStorage
	metrics domrepo.Metrics
	now     func() time.Time
}

var _ pkgkafka.MessageHandler = (*KafkaSalesHandler)(nil)

func NewKafkaSalesHandler(topic string, storage domrepo.SaleStorage, metrics domrepo.Metrics) *KafkaSalesHandler {
	return &KafkaSalesHandler{topic: topic, storage: storage, metrics: metrics, now: time.Now}
}

func (h *KafkaSalesHandler) Topic() string { return h.topic }

func (h *KafkaSalesHandler) Handle(ctx context.Context, b []byte) error {
	var s models.Sale
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode sale: %w", err)
	}
	if err := s.Validate(); err != nil {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("sale %s: %w", s.EventID, err)
	}
	// event time to now
	h.metrics.RecordLatency("ingest_e2e_seconds", h.now().Sub(s.SoldAt).Seconds())

	start := h.now()
	err := h.storage.Store(ctx, &s)
	h.metrics.RecordLatency("ch_insert_seconds", h.now().Sub(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return fmt.Errorf("store sale: %w", err)
	}
	h.metrics.RecordMessageSent(BackendClickHouse, "sale")
	return nil
}
