package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/middleware"
	servicemetrics "ShopPulse/internal/service/metrics"
	"ShopPulse/internal/usecase"
	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
)

// toAppError maps domain errors to their HTTP form.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.RequiredError("productId").WithError(err)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NewAppError("", "", usecase.PublicMessage(err), http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrInvalidProduct), errors.Is(err, models.ErrEmptyHistory):
		return xhttp.UnprocessableError(usecase.PublicMessage(err)).WithError(err)
	case errors.Is(err, models.ErrInvalidSignature):
		return xhttp.NewAppError("ERR_SIGNATURE", "", "invalid webhook signature", http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrInvalidSale):
		return xhttp.BadRequestError("invalid sale").WithError(err)
	case errors.Is(err, middleware.ErrThrottled):
		return xhttp.TooManyRequestsError("too many sales for product").WithError(err)
	case errors.Is(err, models.ErrConflict):
		return xhttp.NewAppError("ERR_CONFLICT", "", "already exists", http.StatusConflict).WithError(err)
	default:
		return xhttp.InternalError(err)
	}
}

// respondError logs, counts and renders err for endpoint.
func respondError(c echo.Context, logger *xlogger.Logger, endpoint string, err error) error {
	appErr := toAppError(err)
	servicemetrics.Fail(endpoint, appErr.Status)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(endpoint+" failed", xlogger.Error(err))
	} else {
		logger.Debug(endpoint+" rejected",
			xlogger.Int("status", appErr.Status),
			xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func respondInvalid(c echo.Context, endpoint string, verr []xhttp.ValidationError) error {
	servicemetrics.Fail(endpoint, http.StatusBadRequest)
	return xhttp.ValidationErrorResponse(c, verr)
}
