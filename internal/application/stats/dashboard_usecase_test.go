package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepo struct {
	productsNow, productsPrev int
	revenueNow, revenuePrev   decimal.Decimal
	pendingNow, pendingPrev   int
	lowNow, lowPrev           int
	failLowStock              bool

	sumWindows [][2]time.Time
}

func (f *fakeStatsRepo) CountProducts(_ context.Context, before *time.Time) (int, error) {
	if before == nil {
		return f.productsNow, nil
	}
	return f.productsPrev, nil
}

func (f *fakeStatsRepo) SumSales(_ context.Context, _ string, from, to time.Time) (decimal.Decimal, error) {
	// Solo la goroutine de ingresos llama a SumSales, de forma secuencial
	f.sumWindows = append(f.sumWindows, [2]time.Time{from, to})
	if len(f.sumWindows) == 1 {
		return f.revenueNow, nil
	}
	return f.revenuePrev, nil
}

func (f *fakeStatsRepo) CountSales(_ context.Context, _ string, before *time.Time) (int, error) {
	if before == nil {
		return f.pendingNow, nil
	}
	return f.pendingPrev, nil
}

func (f *fakeStatsRepo) CountLowStock(_ context.Context, before *time.Time) (int, error) {
	if f.failLowStock {
		return 0, errors.New("conexión perdida")
	}
	if before == nil {
		return f.lowNow, nil
	}
	return f.lowPrev, nil
}

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newUseCase(repo *fakeStatsRepo) *DashboardUseCase {
	return NewDashboardUseCase(repo, "es", "€").WithClock(func() time.Time { return fixedNow })
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 10.0, PercentChange(110, 100))
	assert.Equal(t, 0.0, PercentChange(50, 0), "sin base la variación es 0")
	assert.Equal(t, -5.0, PercentChange(95, 100))
	assert.Equal(t, 33.3, PercentChange(4, 3))
	assert.Equal(t, 0.0, PercentChange(100, 100))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+10.0%", FormatPercent(10, true))
	assert.Equal(t, "-5.0%", FormatPercent(-5, true))
	assert.Equal(t, "0.0%", FormatPercent(0, true))
	assert.Equal(t, "0%", FormatPercent(0, false))
}

func TestFormatAbsolute(t *testing.T) {
	assert.Equal(t, "+2", FormatAbsolute(2))
	assert.Equal(t, "0", FormatAbsolute(0))
	assert.Equal(t, "-1", FormatAbsolute(-1))
	assert.Equal(t, 0, AbsoluteChange(7, 0))
	assert.Equal(t, -1, AbsoluteChange(2, 3))
}

func TestGetDashboardStats_Tarjetas(t *testing.T) {
	repo := &fakeStatsRepo{
		productsNow: 110, productsPrev: 100,
		revenueNow: decimal.NewFromInt(95), revenuePrev: decimal.NewFromInt(100),
		pendingNow: 3, pendingPrev: 0,
		lowNow: 4, lowPrev: 2,
	}

	out, err := newUseCase(repo).GetDashboardStats(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Stats, 4)

	products := out.Stats[0]
	assert.Equal(t, TitleProducts, products.Title)
	assert.Equal(t, "110", products.Value)
	assert.Equal(t, "+10.0%", products.Change)
	assert.Equal(t, "up", products.Trend)
	assert.Equal(t, "blue", products.Color)

	sales := out.Stats[1]
	assert.Equal(t, TitleSales, sales.Title)
	assert.Equal(t, "€95", sales.Value)
	assert.Equal(t, "-5.0%", sales.Change)
	assert.Equal(t, "down", sales.Trend)
	assert.Equal(t, "green", sales.Color)

	pending := out.Stats[2]
	assert.Equal(t, TitlePending, pending.Title)
	assert.Equal(t, "3", pending.Value)
	assert.Equal(t, "0%", pending.Change, "sin pendientes el mes anterior la variación es 0%")
	assert.Equal(t, "up", pending.Trend)
	assert.Equal(t, "orange", pending.Color)

	low := out.Stats[3]
	assert.Equal(t, TitleLowStock, low.Title)
	assert.Equal(t, "4", low.Value)
	assert.Equal(t, "+2", low.Change)
	assert.Equal(t, "up", low.Trend)
	assert.Equal(t, "red", low.Color)

	assert.Equal(t, "Marzo 2026", out.Period)
}

func TestGetDashboardStats_VentanasMensuales(t *testing.T) {
	repo := &fakeStatsRepo{revenueNow: decimal.Zero, revenuePrev: decimal.Zero}

	_, err := newUseCase(repo).GetDashboardStats(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.sumWindows, 2)

	monthStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monthStart, repo.sumWindows[0][0])
	assert.Equal(t, fixedNow, repo.sumWindows[0][1], "el mes en curso termina en el instante actual")
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), repo.sumWindows[1][0])
	assert.Equal(t, monthStart, repo.sumWindows[1][1])
}

func TestGetDashboardStats_ErrorAbortaSinParciales(t *testing.T) {
	repo := &fakeStatsRepo{failLowStock: true}

	out, err := newUseCase(repo).GetDashboardStats(context.Background())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "stock bajo")
}

func TestFormatMoney_Locale(t *testing.T) {
	uc := NewDashboardUseCase(&fakeStatsRepo{}, "en", "$")
	assert.Equal(t, "$1,500.5", uc.formatMoney(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "1,234", uc.formatCount(1234))
}
