package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	ProductID string `query:"productId" json:"productId" validate:"required"`
}

type TrendReportRequest struct {
	ProductID string `query:"productId" json:"productId" validate:"required"`
}

type CreatePaymentIntentRequest struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" default:"USD" validate:"len=3"`
	StoreID       string  `json:"storeId" validate:"required"`
	TransactionID string  `json:"transactionId" validate:"required"`
}

type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type RecordSaleRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Price     float64 `json:"price" validate:"gt=0"`
	Quantity  int     `json:"quantity" default:"1" validate:"gte=1"`
	SoldAt    string  `json:"soldAt"` // RFC3339 or unix seconds; empty means now
}
