package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	models "ShopPulse/internal/domain/models"
	servicemetrics "ShopPulse/internal/service/metrics"
	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
)

// PricingService is the part of the pricing usecase the HTTP layer calls.
type PricingService interface {
	Predict(ctx context.Context, productID string) (models.PriceRecommendation, error)
	TrendReport(ctx context.Context, productID string) (models.TrendReport, error)
	Insights(ctx context.Context, productID string) (*models.PricingInsights, error)
}

// PricingEchoHandler serves recommendation and trend endpoints. Bodies are bare JSON, no envelope.
type PricingEchoHandler struct {
	logger *xlogger.Logger
	svc    PricingService
}

var _ xhttp.Handler = (*PricingEchoHandler)(nil)

func NewPricingEchoHandler(logger *xlogger.Logger, svc PricingService) *PricingEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PricingEchoHandler{logger: logger, svc: svc}
}

func (h *PricingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/pricing")
	g.POST("/predict", h.Predict)
	g.GET("/trend-report", h.TrendReport)
	g.GET("/insights", h.Insights)
}

func (h *PricingEchoHandler) Predict(c echo.Context) error {
	defer servicemetrics.Observe("predict", time.Now())
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return respondInvalid(c, "predict", verr)
	}

	rec, err := h.svc.Predict(c.Request().Context(), req.ProductID)
	if err != nil {
		return respondError(c, h.logger, "predict", err)
	}
	return xhttp.JSONResponse(c, rec)
}

func (h *PricingEchoHandler) TrendReport(c echo.Context) error {
	defer servicemetrics.Observe("trend_report", time.Now())
	req := &models.TrendReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return respondInvalid(c, "trend_report", verr)
	}

	rep, err := h.svc.TrendReport(c.Request().Context(), req.ProductID)
	if err != nil {
		return respondError(c, h.logger, "trend_report", err)
	}
	return xhttp.JSONResponse(c, rep)
}

// Insights returns whatever parts succeeded; per-part failures are listed in errors.
func (h *PricingEchoHandler) Insights(c echo.Context) error {
	defer servicemetrics.Observe("insights", time.Now())
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return respondInvalid(c, "insights", verr)
	}

	res, err := h.svc.Insights(c.Request().Context(), req.ProductID)
	if err != nil {
		return respondError(c, h.logger, "insights", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.JSONResponse(c, res)
}
