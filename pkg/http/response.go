package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope with status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// AcceptedResponse writes a 202 envelope.
func AcceptedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusAccepted, data)
}

// ListResponse writes paginated list response.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

// JSONResponse writes v as-is, without the envelope.
func JSONResponse(c echo.Context, v interface{}) error {
	return c.JSON(http.StatusOK, v)
}

// ErrorResponse writes {"error": message, "code": code}.
func ErrorResponse(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorBody{Error: message, Code: code})
}

// ValidationErrorResponse writes the first validation failure as a 400.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	if len(errs) == 0 {
		return ErrorResponse(c, http.StatusBadRequest, "ERR_BAD_REQUEST", http.StatusText(http.StatusBadRequest))
	}
	return AppErrorResponse(c, errs[0].AppError())
}

// AppErrorResponse renders err as an ErrorBody. Anything that is not an AppError becomes a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			return ErrorResponse(c, appErr.Status, "", MessageInternal)
		}
		return ErrorResponse(c, appErr.Status, appErr.Code, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "", MessageInternal)
}

// HTTPErrorHandler replaces Echo's default so router errors use the same flat shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			_ = ErrorResponse(c, http.StatusNotFound, "", MessageNotFound)
		case http.StatusMethodNotAllowed:
			_ = ErrorResponse(c, http.StatusMethodNotAllowed, "", http.StatusText(http.StatusMethodNotAllowed))
		default:
			if he.Code >= http.StatusInternalServerError {
				_ = ErrorResponse(c, he.Code, "", MessageInternal)
				return
			}
			_ = ErrorResponse(c, he.Code, "", http.StatusText(he.Code))
		}
		return
	}
	_ = AppErrorResponse(c, err)
}
