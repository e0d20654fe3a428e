package ports

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ReceiptGenerator genera el comprobante imprimible de una venta.
type ReceiptGenerator interface {
	GenerateSaleReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
}
