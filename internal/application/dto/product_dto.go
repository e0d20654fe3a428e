package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock" validate:"required,min=0"`
	Category    string          `json:"category" validate:"required,max=100"`
	Supplier    string          `json:"supplier" validate:"max=200"`
	MinStock    *int            `json:"minStock" validate:"omitempty,min=0"`
}

// UpdateProductRequest actualización parcial; los campos nil se conservan.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	Category    *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Supplier    *string          `json:"supplier" validate:"omitempty,max=200"`
	MinStock    *int             `json:"minStock" validate:"omitempty,min=0"`
}

// ProductListRequest filtros y paginación de GET /api/products.
type ProductListRequest struct {
	PageRequest
	SearchTerm string `query:"searchTerm"`
	Category   string `query:"category"`
	MinStock   *int   `query:"minStock"`
	LowStock   bool   `query:"lowStock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Supplier    string          `json:"supplier"`
	MinStock    int             `json:"minStock"`
	LowStock    bool            `json:"lowStock"`
	LastUpdated time.Time       `json:"lastUpdated"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
