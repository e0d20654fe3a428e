package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. Price es opcional: si llega debe coincidir con el precio vigente.
type SaleItemRequest struct {
	ProductID string           `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Price     *decimal.Decimal `json:"price"`
}

// CreateSaleRequest entrada de POST /api/sales.
// Total es opcional; si llega distinto de cero debe coincidir con el calculado.
type CreateSaleRequest struct {
	Items  []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Total  *decimal.Decimal  `json:"total"`
	Status string            `json:"status" validate:"omitempty,oneof=pendiente completada"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleUserResponse vendedor resumido.
type SaleUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID       string             `json:"id"`
	Items    []SaleItemResponse `json:"items"`
	Total    decimal.Decimal    `json:"total"`
	SaleDate time.Time          `json:"saleDate"`
	Status   string             `json:"status"`
	User     SaleUserResponse   `json:"user"`
}

// ProcessSaleResponse salida de POST /api/sales.
type ProcessSaleResponse struct {
	Message string       `json:"message"`
	Sale    SaleResponse `json:"sale"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
