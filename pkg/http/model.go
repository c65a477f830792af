package http

// Messages shared by every handler.
const (
	MessageInternal = "Internal server error"
	MessageNotFound = "Not found"
)

// APIResponse is the envelope used by operational endpoints.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the flat error shape returned by the pricing and payment APIs.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// AppError converts the detail to a 400 AppError.
func (v ValidationError) AppError() *AppError {
	e := NewAppError(v.Code, v.Field, v.Message, 400)
	for k, p := range v.Params {
		e.WithParam(k, p)
	}
	return e
}

// ListDataResponse represents paginated list response.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
