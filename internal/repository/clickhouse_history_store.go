package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	pkgch "ShopPulse/pkg/clickhouse"
	applogger "ShopPulse/pkg/logger"
	"ShopPulse/pkg/util"
)

// CHHistoryStore implements HistoryStore by aggregating raw sales per UTC day.
type CHHistoryStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)

func NewCHHistoryStore(ch *pkgch.Client, table string) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB(), table: table, l: applogger.Nop(), now: time.Now}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// GetHistory returns one point per day that had sales, ascending, covering
// the last windowDays days up to and including today.
func (s *CHHistoryStore) GetHistory(ctx context.Context, productID string, windowDays int) ([]models.HistoricalPricePoint, error) {
	start := time.Now()
	days := domrepo.NormalizeWindowDays(windowDays)
	q, args := s.historyQuery(productID, days)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("clickhouse get_history query error", productID, err)
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoricalPricePoint, 0, days+1)
	for rows.Next() {
		var (
			day   time.Time
			price float64
			sales uint64
		)
		if err := rows.Scan(&day, &price, &sales); err != nil {
			s.logError("clickhouse get_history scan error", productID, err)
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, dailyPoint(day, price, sales))
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse get_history rows error", productID, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse get_history ok",
			applogger.String("product_id", productID),
			applogger.Int("window_days", days),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// historyQuery reads with FINAL so redelivered sales sharing an event_id are
// counted once even before ReplacingMergeTree merges the parts.
func (s *CHHistoryStore) historyQuery(productID string, days int) (string, []interface{}) {
	from, to := util.DayWindow(s.now(), days)
	q := fmt.Sprintf(`SELECT toDate(sold_at) AS day, round(avg(price), 2) AS price, sum(quantity) AS sales `+
		`FROM %s FINAL `+
		`WHERE product_id = ? AND sold_at >= ? AND sold_at < ? `+
		`GROUP BY day ORDER BY day ASC`, s.table)
	return q, []interface{}{productID, from, to}
}

func (s *CHHistoryStore) logError(msg, productID string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", s.table),
		applogger.String("product_id", productID),
		applogger.Error(err),
	)
}

func dailyPoint(day time.Time, avgPrice float64, sales uint64) models.HistoricalPricePoint {
	return models.HistoricalPricePoint{
		Date:  util.FormatDay(day),
		Price: avgPrice,
		Sales: int(sales),
	}
}
