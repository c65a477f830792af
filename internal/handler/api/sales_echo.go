package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	models "ShopPulse/internal/domain/models"
	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
	"ShopPulse/pkg/util"
)

// SaleIngester accepts one sale event, normally the sales pipeline.
type SaleIngester interface {
	Process(ctx context.Context, s *models.Sale) error
}

type SalesEchoHandler struct {
	logger *xlogger.Logger
	ingest SaleIngester
	now    func() time.Time
}

var _ xhttp.Handler = (*SalesEchoHandler)(nil)

func NewSalesEchoHandler(logger *xlogger.Logger, ingest SaleIngester) *SalesEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SalesEchoHandler{logger: logger, ingest: ingest, now: time.Now}
}

func (h *SalesEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/sales", h.Record)
}

// Record accepts a sale for asynchronous storage and answers 202 with its event id.
func (h *SalesEchoHandler) Record(c echo.Context) error {
	req := &models.RecordSaleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return respondInvalid(c, "record_sale", verr)
	}

	soldAt := h.now()
	if req.SoldAt != "" {
		t, ok := util.ParseTime(req.SoldAt)
		if !ok {
			return respondError(c, h.logger, "record_sale",
				xhttp.NewAppError("ERR_BAD_REQUEST", "soldAt", "soldAt must be RFC3339 or unix seconds", 400))
		}
		soldAt = t
	}

	sale := &models.Sale{
		EventID:   uuid.NewString(),
		ProductID: req.ProductID,
		Price:     req.Price,
		Quantity:  req.Quantity,
		SoldAt:    soldAt.UTC(),
	}
	if err := h.ingest.Process(c.Request().Context(), sale); err != nil {
		return respondError(c, h.logger, "record_sale", err)
	}
	return xhttp.AcceptedResponse(c, map[string]string{"eventId": sale.EventID})
}
