// Package stats contiene el caso de uso de estadísticas agregadas del dashboard.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// Tarjetas del dashboard, en el orden en que se devuelven.
const (
	TitleProducts = "Productos en Stock"
	TitleSales    = "Ventas del Mes"
	TitlePending  = "Pedidos Pendientes"
	TitleLowStock = "Productos Agotándose"
)

// DashboardUseCase calcula las cuatro métricas del dashboard con su variación respecto al mes anterior.
//
// Fuente de datos: StatsRepository (consultas read-only).
type DashboardUseCase struct {
	repo     repository.StatsRepository
	printer  *message.Printer
	currency string
	now      func() time.Time
}

// NewDashboardUseCase construye el caso de uso. locale es una etiqueta BCP 47 ("es", "en"...).
func NewDashboardUseCase(repo repository.StatsRepository, locale, currency string) *DashboardUseCase {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return &DashboardUseCase{
		repo:     repo,
		printer:  message.NewPrinter(tag),
		currency: currency,
		now:      time.Now,
	}
}

// WithClock fija el reloj usado para calcular las ventanas mensuales.
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetDashboardStats construye las tarjetas del dashboard.
//
// Cuatro métricas en paralelo; el primer error cancela las demás y no se devuelven resultados parciales:
//  1. productos totales vs. creados antes del inicio de mes      → variación %
//  2. ingresos de ventas completadas, mes en curso vs. anterior   → variación %
//  3. ventas pendientes vs. pendientes fechadas antes de inicio de mes → variación %
//  4. productos con stock bajo vs. los que ya lo estaban a inicio de mes → diferencia absoluta
func (uc *DashboardUseCase) GetDashboardStats(ctx context.Context) (*dto.DashboardStatsDTO, error) {
	now := uc.now()

	// ── Ventanas ───────────────────────────────────────────────────────────────
	// Mes en curso: [día 1 00:00, ahora). Mes anterior: [día 1 del mes previo, día 1 del mes en curso).
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	var (
		productsNow, productsPrev int
		revenueNow, revenuePrev   decimal.Decimal
		pendingNow, pendingPrev   int
		lowNow, lowPrev           int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if productsNow, err = uc.repo.CountProducts(gctx, nil); err != nil {
			return fmt.Errorf("dashboard: productos: %w", err)
		}
		if productsPrev, err = uc.repo.CountProducts(gctx, &monthStart); err != nil {
			return fmt.Errorf("dashboard: productos mes anterior: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if revenueNow, err = uc.repo.SumSales(gctx, entity.SaleStatusCompleted, monthStart, now); err != nil {
			return fmt.Errorf("dashboard: ventas del mes: %w", err)
		}
		if revenuePrev, err = uc.repo.SumSales(gctx, entity.SaleStatusCompleted, prevMonthStart, monthStart); err != nil {
			return fmt.Errorf("dashboard: ventas mes anterior: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pendingNow, err = uc.repo.CountSales(gctx, entity.SaleStatusPending, nil); err != nil {
			return fmt.Errorf("dashboard: pendientes: %w", err)
		}
		if pendingPrev, err = uc.repo.CountSales(gctx, entity.SaleStatusPending, &monthStart); err != nil {
			return fmt.Errorf("dashboard: pendientes mes anterior: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if lowNow, err = uc.repo.CountLowStock(gctx, nil); err != nil {
			return fmt.Errorf("dashboard: stock bajo: %w", err)
		}
		if lowPrev, err = uc.repo.CountLowStock(gctx, &monthStart); err != nil {
			return fmt.Errorf("dashboard: stock bajo mes anterior: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ── Tarjetas ───────────────────────────────────────────────────────────────
	productsChange := PercentChange(float64(productsNow), float64(productsPrev))
	revenueChange := PercentChange(revenueNow.InexactFloat64(), revenuePrev.InexactFloat64())
	pendingChange := PercentChange(float64(pendingNow), float64(pendingPrev))
	lowChange := AbsoluteChange(lowNow, lowPrev)

	return &dto.DashboardStatsDTO{
		Stats: []dto.StatCardDTO{
			{
				Title:  TitleProducts,
				Value:  uc.formatCount(productsNow),
				Change: FormatPercent(productsChange, productsPrev > 0),
				Trend:  trend(productsChange),
				Color:  "blue",
			},
			{
				Title:  TitleSales,
				Value:  uc.formatMoney(revenueNow),
				Change: FormatPercent(revenueChange, revenuePrev.IsPositive()),
				Trend:  trend(revenueChange),
				Color:  "green",
			},
			{
				Title:  TitlePending,
				Value:  uc.formatCount(pendingNow),
				Change: FormatPercent(pendingChange, pendingPrev > 0),
				Trend:  trend(pendingChange),
				Color:  "orange",
			},
			{
				Title:  TitleLowStock,
				Value:  uc.formatCount(lowNow),
				Change: FormatAbsolute(lowChange),
				Trend:  trend(float64(lowChange)),
				Color:  "red",
			},
		},
		Period: monthLabel(now),
	}, nil
}

// PercentChange (cur - prev) / prev * 100 redondeado a un decimal; 0 si prev no es positivo.
func PercentChange(cur, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	pct := math.Round((cur-prev)/prev*100*10) / 10
	if pct == 0 {
		return 0 // evita "-0.0"
	}
	return pct
}

// AbsoluteChange cur - prev si prev > 0; si no, 0.
func AbsoluteChange(cur, prev int) int {
	if prev <= 0 {
		return 0
	}
	return cur - prev
}

// FormatPercent "+10.0%", "-5.0%", "0.0%"; "0%" cuando no había base de comparación.
func FormatPercent(pct float64, hasBase bool) string {
	if !hasBase {
		return "0%"
	}
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatAbsolute "+2", "0", "-1".
func FormatAbsolute(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func trend(change float64) string {
	if change >= 0 {
		return "up"
	}
	return "down"
}

func (uc *DashboardUseCase) formatCount(n int) string {
	return uc.printer.Sprint(number.Decimal(n))
}

func (uc *DashboardUseCase) formatMoney(d decimal.Decimal) string {
	return uc.currency + uc.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
