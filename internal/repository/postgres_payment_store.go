package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	"ShopPulse/pkg/postgres"
)

// PGPaymentStore persists payment rows keyed by the processor's intent id.
type PGPaymentStore struct {
	db    *sql.DB
	table string
}

var _ domrepo.PaymentStore = (*PGPaymentStore)(nil)

func NewPGPaymentStore(pg *postgres.Client, table string) *PGPaymentStore {
	return &PGPaymentStore{db: pg.DB(), table: postgres.QuoteIdent(table)}
}

func (s *PGPaymentStore) Insert(ctx context.Context, p *models.Payment) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (store_id, transaction_id, amount, currency, status, payment_method, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at, updated_at
	`, s.table)

	err := s.db.QueryRowContext(ctx, q,
		p.StoreID, p.TransactionID, p.Amount, p.Currency, string(p.Status), p.PaymentMethod, p.PaymentIntentID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", p.PaymentIntentID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// UpdateStatus sets status and error message by intent id. An unknown intent is ErrNotFound.
func (s *PGPaymentStore) UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus, errMsg string) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		WHERE payment_intent_id = $1
	`, s.table)

	res, err := s.db.ExecContext(ctx, q, intentID, string(status), errMsg)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", intentID, models.ErrNotFound)
	}
	return nil
}

func (s *PGPaymentStore) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	q := fmt.Sprintf(`
		SELECT id::text, store_id::text, transaction_id, amount, currency, status,
			COALESCE(payment_method, ''), payment_intent_id, COALESCE(error_message, ''),
			created_at, updated_at
		FROM %s
		WHERE payment_intent_id = $1
	`, s.table)

	var (
		p      models.Payment
		status string
	)
	err := s.db.QueryRowContext(ctx, q, intentID).Scan(
		&p.ID, &p.StoreID, &p.TransactionID, &p.Amount, &p.Currency, &status,
		&p.PaymentMethod, &p.PaymentIntentID, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", intentID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	p.Status = models.PaymentStatus(status)
	return &p, nil
}
