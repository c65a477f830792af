package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	"ShopPulse/pkg/cache"
	applogger "ShopPulse/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ErrSweepRunning is returned when another sweep holds the lock.
var ErrSweepRunning = errors.New("sweep already running")

const sweepLockKey = "pricing:sweep:lock"

// Repricer walks the whole catalog and re-emits a recommendation per product.
type Repricer struct {
	products    domrepo.ProductStore
	pricing     *PricingUseCase
	locker      cache.Service
	batchSize   int
	concurrency int
	lockTTL     time.Duration
	l           *applogger.Logger
}

func NewRepricer(products domrepo.ProductStore, pricing *PricingUseCase, locker cache.Service, batchSize, concurrency int) *Repricer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Repricer{
		products:    products,
		pricing:     pricing,
		locker:      locker,
		batchSize:   batchSize,
		concurrency: concurrency,
		lockTTL:     10 * time.Minute,
		l:           applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (r *Repricer) SetLogger(l *applogger.Logger) {
	if l != nil {
		r.l = l
	}
}

// Sweep reprices every product page by page. Per-product failures are counted,
// not returned; only listing errors and cancellation abort the sweep.
func (r *Repricer) Sweep(ctx context.Context) (models.SweepResult, error) {
	start := time.Now()
	var res models.SweepResult

	if r.locker != nil {
		ok, err := r.locker.TryLock(ctx, sweepLockKey, r.lockTTL)
		if err != nil {
			return res, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return res, ErrSweepRunning
		}
		defer func() {
			if err := r.locker.Unlock(context.Background(), sweepLockKey); err != nil {
				r.l.Warn("release sweep lock failed", applogger.Error(err))
			}
		}()
	}

	var published, failed int64
	after := ""
	for {
		page, err := r.products.ListProducts(ctx, after, r.batchSize)
		if err != nil {
			res.Published, res.Failed = int(published), int(failed)
			res.Duration = time.Since(start)
			return res, fmt.Errorf("list products after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}
		res.Scanned += len(page)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for _, p := range page {
			p := p
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if _, err := r.pricing.Reprice(gctx, p); err != nil {
					atomic.AddInt64(&failed, 1)
					r.l.Warn("reprice failed",
						applogger.String("product_id", p.ID),
						applogger.Error(err))
					return nil
				}
				atomic.AddInt64(&published, 1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			res.Published, res.Failed = int(published), int(failed)
			res.Duration = time.Since(start)
			return res, fmt.Errorf("sweep cancelled: %w", err)
		}

		if len(page) < r.batchSize {
			break
		}
		after = page[len(page)-1].ID
	}

	res.Published, res.Failed = int(published), int(failed)
	res.Duration = time.Since(start)
	r.l.Info("repricing sweep finished",
		applogger.Int("scanned", res.Scanned),
		applogger.Int("published", res.Published),
		applogger.Int("failed", res.Failed),
		applogger.Duration("duration_ms", res.Duration))
	return res, nil
}
