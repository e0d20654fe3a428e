package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SaleProcessedEvent se publica tras confirmar una venta.
type SaleProcessedEvent struct {
	SaleID   string              `json:"sale_id"`
	UserID   string              `json:"user_id"`
	Status   string              `json:"status"`
	Total    decimal.Decimal     `json:"total"`
	SaleDate time.Time           `json:"sale_date"`
	Items    []SaleEventLineItem `json:"items"`
}

// SaleEventLineItem línea dentro de SaleProcessedEvent.
type SaleEventLineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// LowStockEvent se publica cuando una venta deja un producto en o por debajo de su mínimo.
type LowStockEvent struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	At          time.Time `json:"at"`
}

// EventPublisher puerto de salida para eventos de negocio.
type EventPublisher interface {
	PublishSaleProcessed(ctx context.Context, ev SaleProcessedEvent) error
	PublishLowStock(ctx context.Context, ev LowStockEvent) error
}
