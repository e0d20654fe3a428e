package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo consultas agregadas del dashboard. Solo lectura.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository construye el repositorio de estadísticas.
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

// CountProducts cuenta productos, opcionalmente los creados antes de before.
func (r *StatsRepo) CountProducts(ctx context.Context, before *time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE ($1::timestamptz IS NULL OR created_at < $1)`, before)
}

// SumSales suma los totales con el estado dado y sale_date en [from, to). Cero si no hay ventas.
func (r *StatsRepo) SumSales(ctx context.Context, status string, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM sales
		WHERE status = $1 AND sale_date >= $2 AND sale_date < $3`,
		status, from, to,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sales: %w", err)
	}
	return sum, nil
}

// CountSales cuenta ventas con el estado dado, opcionalmente fechadas antes de before.
func (r *StatsRepo) CountSales(ctx context.Context, status string, before *time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM sales
		WHERE status = $2 AND ($1::timestamptz IS NULL OR sale_date < $1)`, before, status)
}

// CountLowStock cuenta productos con stock <= min_stock, opcionalmente actualizados antes de before.
func (r *StatsRepo) CountLowStock(ctx context.Context, before *time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM products
		WHERE stock <= min_stock AND ($1::timestamptz IS NULL OR last_updated < $1)`, before)
}

func (r *StatsRepo) count(ctx context.Context, query string, before *time.Time, args ...any) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, query, append([]any{before}, args...)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("stats count: %w", err)
	}
	return n, nil
}
