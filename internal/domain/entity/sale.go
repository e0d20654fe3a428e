package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPending   = "pendiente"
	SaleStatusCompleted = "completada"
	SaleStatusCancelled = "cancelada"
)

// SaleItem línea de una venta. Price es el precio unitario capturado al vender.
type SaleItem struct {
	ProductID   string
	ProductName string // solo lectura, se rellena al consultar
	Quantity    int
	Price       decimal.Decimal
}

// Subtotal cantidad × precio.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale venta registrada. Es inmutable una vez creada; posee sus líneas.
type Sale struct {
	ID       string
	Items    []SaleItem
	Total    decimal.Decimal
	SaleDate time.Time
	UserID   string
	Status   string

	// Datos del vendedor, rellenados al consultar
	UserName  string
	UserEmail string
}

// ComputeTotal suma los subtotales de las líneas.
func (s *Sale) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
