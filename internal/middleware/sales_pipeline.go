package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	applogger "ShopPulse/pkg/logger"
)

// ErrThrottled is returned when a product exceeds its per-second sale budget.
var ErrThrottled = errors.New("sale throttled")

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.Sale) error
}

// SalesPipeline sits between the HTTP ingest endpoint and the sale processor.
// It validates, throttles per product, and buffers sales while downstream is unavailable.
type SalesPipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	l         *applogger.Logger
	maxRPS    int
	bufSize   int
	retryBase time.Duration
	retryMax  time.Duration
	bufCh     chan *models.Sale
	stopCh    chan struct{}
	wg        sync.WaitGroup
	started   bool
	mu        sync.Mutex
	lastSeen  map[string]time.Time // per-product last accepted time
	maxKeys   int
	now       func() time.Time
}

type PipelineOption func(*SalesPipeline)

// WithMaxRPS sets the max sales per second per product. Zero disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *SalesPipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the buffer size used while downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SalesPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetryBackoff sets the flush backoff bounds.
func WithRetryBackoff(base, max time.Duration) PipelineOption {
	return func(p *SalesPipeline) {
		if base > 0 {
			p.retryBase = base
		}
		if max >= p.retryBase {
			p.retryMax = max
		}
	}
}

func withClock(now func() time.Time) PipelineOption {
	return func(p *SalesPipeline) { p.now = now }
}

func withMaxKeys(n int) PipelineOption {
	return func(p *SalesPipeline) { p.maxKeys = n }
}

func NewSalesPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *SalesPipeline {
	p := &SalesPipeline{
		proc:      proc,
		metrics:   metrics,
		l:         applogger.Nop(),
		maxRPS:    50,
		bufSize:   1000,
		retryBase: 50 * time.Millisecond,
		retryMax:  2 * time.Second,
		lastSeen:  make(map[string]time.Time),
		maxKeys:   10000,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Sale, p.bufSize)
	return p
}

// SetLogger injects a structured logger.
func (p *SalesPipeline) SetLogger(l *applogger.Logger) {
	if l != nil {
		p.l = l
	}
}

// Start launches background flushing of buffered sales.
func (p *SalesPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	stop := make(chan struct{})
	p.stopCh = stop
	p.mu.Unlock()

	p.wg.Add(1)
	go p.flushLoop(ctx, stop)
}

func (p *SalesPipeline) flushLoop(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()
	backoff := p.retryBase
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case s := <-p.bufCh:
			if err := p.proc.Process(ctx, s); err == nil {
				backoff = p.retryBase
				continue
			}
			p.metrics.RecordError("pipeline_flush")
			select {
			case <-time.After(backoff):
			case <-stop:
				p.requeue(s)
				return
			case <-ctx.Done():
				p.requeue(s)
				return
			}
			if backoff *= 2; backoff > p.retryMax {
				backoff = p.retryMax
			}
			p.requeue(s)
		}
	}
}

// requeue puts s back if there is room and drops it otherwise.
func (p *SalesPipeline) requeue(s *models.Sale) {
	select {
	case p.bufCh <- s:
	default:
		p.metrics.RecordError("pipeline_buffer_drop")
		p.l.Warn("sales buffer full, dropping sale",
			applogger.String("event_id", s.EventID),
			applogger.String("product_id", s.ProductID))
	}
}

// Stop stops the background flushing. Sales still buffered are left in memory
// and are flushed again after the next Start.
func (p *SalesPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stop := p.stopCh
	p.stopCh = nil
	p.mu.Unlock()
	close(stop)
	p.wg.Wait()
}

// Buffered returns how many sales are waiting for downstream.
func (p *SalesPipeline) Buffered() int {
	return len(p.bufCh)
}

// Process validates, throttles and forwards s. A downstream failure buffers
// the sale and returns nil; it is an error only when the buffer is full.
func (p *SalesPipeline) Process(ctx context.Context, s *models.Sale) error {
	start := p.now()
	if err := s.Validate(); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.ProductID, start) {
		p.metrics.RecordError("pipeline_throttle")
		return fmt.Errorf("product %s: %w", s.ProductID, ErrThrottled)
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- s:
			p.l.Warn("sale buffered after downstream failure",
				applogger.String("event_id", s.EventID),
				applogger.Int("buffered", len(p.bufCh)),
				applogger.Error(err))
			return nil
		default:
			p.metrics.RecordError("pipeline_buffer_full")
			return fmt.Errorf("pipeline downstream: %w", err)
		}
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

func (p *SalesPipeline) allow(productID string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	interval := time.Second / time.Duration(p.maxRPS)
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.lastSeen[productID]
	if ok && now.Sub(last) < interval {
		return false
	}
	if !ok && len(p.lastSeen) >= p.maxKeys {
		p.pruneLocked(now.Add(-interval))
		// Every tracked product is inside its interval; refuse rather than grow.
		if len(p.lastSeen) >= p.maxKeys {
			return false
		}
	}
	p.lastSeen[productID] = now
	return true
}

// pruneLocked forgets products last accepted before cutoff. An entry older
// than one interval never throttles, so dropping it changes no decision.
func (p *SalesPipeline) pruneLocked(cutoff time.Time) int {
	n := 0
	for k, t := range p.lastSeen {
		if t.Before(cutoff) {
			delete(p.lastSeen, k)
			n++
		}
	}
	return n
}
