package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/usecase"
	applogger "ShopPulse/pkg/logger"
)

// Sweeper runs one repricing pass over the catalog.
type Sweeper interface {
	Sweep(ctx context.Context) (models.SweepResult, error)
}

// Scheduler runs the repricing sweep on a cron schedule with a seconds field.
type Scheduler struct {
	cron       *cron.Cron
	sweeper    Sweeper
	spec       string
	timeout    time.Duration
	runOnStart bool
	l          *applogger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

// WithRunOnStart triggers one sweep as soon as the scheduler starts.
func WithRunOnStart(v bool) Option {
	return func(s *Scheduler) { s.runOnStart = v }
}

// WithSweepTimeout bounds a single sweep.
func WithSweepTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.l = l
		}
	}
}

func New(sweeper Sweeper, spec string, opts ...Option) *Scheduler {
	s := &Scheduler{
		sweeper: sweeper,
		spec:    spec,
		timeout: 5 * time.Minute,
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{l: s.l}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Start registers the sweep and starts the cron loop. ctx is the parent of every sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, s.RunNow); err != nil {
		return fmt.Errorf("register sweep %q: %w", s.spec, err)
	}

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.l.Info("scheduler started", applogger.String("cron", s.spec))
	if s.runOnStart {
		go s.RunNow()
	}
	return nil
}

// Stop cancels running sweeps and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow runs one sweep synchronously.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	res, err := s.sweeper.Sweep(ctx)
	switch {
	case errors.Is(err, usecase.ErrSweepRunning):
		s.l.Debug("sweep skipped, another instance holds the lock")
	case err != nil:
		s.l.Error("sweep failed", applogger.Error(err))
	default:
		s.l.Debug("scheduled sweep done",
			applogger.Int("published", res.Published),
			applogger.Int("failed", res.Failed))
	}
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(fields(keysAndValues), applogger.Error(err))...)
}

func fields(kv []interface{}) []applogger.Field {
	out := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, applogger.Any(key, kv[i+1]))
	}
	return out
}
