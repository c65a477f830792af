package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
)

// HealthChecker is anything that can answer a readiness ping.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthFunc adapts a plain ping function.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Health(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	logger  *xlogger.Logger
	checks  map[string]HealthChecker
	timeout time.Duration
}

var _ xhttp.Handler = (*HealthHandler)(nil)

// NewHealthHandler builds liveness and readiness probes. Nil checkers are skipped.
func NewHealthHandler(logger *xlogger.Logger, checks map[string]HealthChecker) *HealthHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	m := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			m[name] = c
		}
	}
	return &HealthHandler{logger: logger, checks: m, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
}

func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.JSONResponse(c, map[string]string{"status": "ok"})
}

// Ready pings every dependency. Failure details go to the log, not the response.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			h.logger.Warn("readiness check failed", xlogger.String("dependency", name), xlogger.Error(err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	return c.JSON(status, map[string]interface{}{"status": overall, "checks": results})
}
