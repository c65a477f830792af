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

// PGProductStore reads product snapshots from the catalog's products table.
type PGProductStore struct {
	db    *sql.DB
	table string
}

var _ domrepo.ProductStore = (*PGProductStore)(nil)

func NewPGProductStore(pg *postgres.Client, table string) *PGProductStore {
	return &PGProductStore{db: pg.DB(), table: postgres.QuoteIdent(table)}
}

func (s *PGProductStore) GetProduct(ctx context.Context, id string) (models.Product, error) {
	q := fmt.Sprintf(`
		SELECT id::text, COALESCE(store_id::text, ''), COALESCE(name, ''), price, stock
		FROM %s
		WHERE id::text = $1
	`, s.table)

	var p models.Product
	err := s.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProducts pages by id: pass the last id of the previous page, or "" to start.
func (s *PGProductStore) ListProducts(ctx context.Context, afterID string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`
		SELECT id::text, COALESCE(store_id::text, ''), COALESCE(name, ''), price, stock
		FROM %s
		WHERE id::text > $1
		ORDER BY id::text ASC
		LIMIT $2
	`, s.table)

	rows, err := s.db.QueryContext(ctx, q, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]models.Product, 0, limit)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGProductStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
