package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatsRepository consultas agregadas de solo lectura para el dashboard.
// Un parámetro before nil significa "sin límite temporal".
type StatsRepository interface {
	// CountProducts cuenta productos (creados antes de before, si se indica).
	CountProducts(ctx context.Context, before *time.Time) (int, error)

	// SumSales suma el total de ventas con el estado dado y sale_date en [from, to).
	SumSales(ctx context.Context, status string, from, to time.Time) (decimal.Decimal, error)

	// CountSales cuenta ventas con el estado dado (fechadas antes de before, si se indica).
	CountSales(ctx context.Context, status string, before *time.Time) (int, error)

	// CountLowStock cuenta productos con stock <= min_stock (actualizados antes de before, si se indica).
	CountLowStock(ctx context.Context, before *time.Time) (int, error)
}
