package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// SaleRepository persistencia de ventas con sus líneas.
type SaleRepository interface {
	// Create inserta cabecera y líneas; debe ejecutarse en la misma transacción que el descuento de stock.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve la venta con vendedor y nombres de producto, o (nil, nil).
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, int, error)
}
