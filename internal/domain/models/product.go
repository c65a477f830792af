package models

import "time"

// Product is a read-only snapshot of a catalog record owned by the product-management subsystem.
type Product struct {
	ID      string
	StoreID string
	Name    string
	Price   float64
	Stock   int
}

// Validate checks the fields the pricing core depends on.
func (p Product) Validate() error {
	if p.Price <= 0 || p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// Sale is a single sold line item, the raw input of historical analytics.
type Sale struct {
	EventID   string    `json:"eventId"`
	ProductID string    `json:"productId"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	SoldAt    time.Time `json:"soldAt"`
}

// Validate checks a sale before it enters the pipeline.
func (s *Sale) Validate() error {
	if s == nil || s.ProductID == "" || s.Price <= 0 || s.Quantity < 1 || s.SoldAt.IsZero() {
		return ErrInvalidSale
	}
	return nil
}
