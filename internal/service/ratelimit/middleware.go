package ratelimit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	xhttp "ShopPulse/pkg/http"
)

// Middleware rejects requests over the client's budget with 429. Clients are keyed by real IP.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.ErrorResponse(c, http.StatusTooManyRequests, "ERR_RATE_LIMITED", "Too many requests")
			}
			return next(c)
		}
	}
}
