package models

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrEmptyHistory     = errors.New("historical series is empty")
	ErrInvalidProduct   = errors.New("product snapshot has invalid price or stock")
	ErrInvalidSale      = errors.New("invalid sale")
	ErrConflict         = errors.New("already exists")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
