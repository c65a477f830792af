package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "ShopPulse/pkg/http"
	applogger "ShopPulse/pkg/logger"
)

// Component is a background part of the process. Start must not block.
type Component struct {
	Name  string
	Start func(ctx context.Context) error
	Stop  func(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// App owns the process lifecycle: components start in order, the HTTP server
// last, and everything stops in reverse once the run context ends.
type App struct {
	logger          *applogger.Logger
	httpServer      *xhttp.Server
	components      []Component
	closers         []closer
	shutdownTimeout time.Duration
}

func New(logger *applogger.Logger, httpServer *xhttp.Server, shutdownTimeout time.Duration) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &App{logger: logger, httpServer: httpServer, shutdownTimeout: shutdownTimeout}
}

// Add registers a component. Components added first start first.
func (a *App) Add(c Component) {
	a.components = append(a.components, c)
}

// AddCloser registers a resource released after every component stopped.
func (a *App) AddCloser(name string, fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, closer{name: name, fn: fn})
	}
}

// Run blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts everything and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := 0
	for _, c := range a.components {
		if c.Start == nil {
			started++
			continue
		}
		if err := c.Start(runCtx); err != nil {
			a.logger.Error("component start failed", applogger.String("component", c.Name), applogger.Error(err))
			cancel()
			a.stop(a.components[:started])
			a.close()
			return fmt.Errorf("start %s: %w", c.Name, err)
		}
		a.logger.Info("component started", applogger.String("component", c.Name))
		started++
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			cancel()
			a.stop(a.components)
			a.close()
			return fmt.Errorf("start http: %w", err)
		}
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	var errs []error
	if a.httpServer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.httpServer.Stop(stopCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
		stopCancel()
	}
	cancel()
	errs = append(errs, a.stop(a.components)...)
	errs = append(errs, a.close()...)

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// stop stops cs in reverse order, each bounded by the shutdown timeout.
func (a *App) stop(cs []Component) []error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if c.Stop == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := c.Stop(ctx); err != nil {
			a.logger.Warn("component stop error", applogger.String("component", c.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name, err))
		}
		cancel()
	}
	return errs
}

func (a *App) close() []error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errs
}
