package ports

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ProductIndexer puerto de salida hacia el motor de búsqueda de productos.
// El índice solo sirve para encontrar IDs; los datos vigentes se leen siempre de la base.
type ProductIndexer interface {
	Index(ctx context.Context, product *entity.Product) error
	Remove(ctx context.Context, productID string) error
	// Search devuelve los IDs que coinciden, ordenados por relevancia, y el total de aciertos.
	Search(ctx context.Context, query string, from, size int) (ids []string, total int, err error)
	// Enabled indica si hay un motor real detrás (false en el adaptador nulo).
	Enabled() bool
}
