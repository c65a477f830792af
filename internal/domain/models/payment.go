package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment mirrors a row of the payments table.
type Payment struct {
	ID              string
	StoreID         string
	TransactionID   string
	Amount          float64
	Currency        string
	Status          PaymentStatus
	PaymentMethod   string
	PaymentIntentID string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentIntent is the processor-side handle returned when a payment starts.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentIntentParams are the processor inputs; Amount is in minor currency units.
type PaymentIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type PaymentEventType string

const (
	EventPaymentSucceeded PaymentEventType = "payment_intent.succeeded"
	EventPaymentFailed    PaymentEventType = "payment_intent.payment_failed"
)

// PaymentEvent is a verified webhook notification reduced to what status tracking needs.
type PaymentEvent struct {
	ID           string           `json:"id"`
	Type         PaymentEventType `json:"type"`
	IntentID     string           `json:"intentId"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// StatusUpdate is the payload of the async payment status job.
type StatusUpdate struct {
	IntentID     string        `json:"intentId"`
	Status       PaymentStatus `json:"status"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}
