package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinStock umbral de stock bajo cuando no se indica otro.
const DefaultMinStock = 5

// Product representa un medicamento o artículo del inventario.
// Stock nunca baja de cero: lo garantiza el procesamiento de ventas (y un CHECK en la tabla).
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Supplier    string
	MinStock    int
	LastUpdated time.Time
	CreatedAt   time.Time
}

// IsLowStock indica si el producto está en o por debajo de su umbral.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
