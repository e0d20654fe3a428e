package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ProductFilter criterios del listado de productos.
type ProductFilter struct {
	SearchTerm string // coincidencia parcial, sin mayúsculas, en nombre, descripción o categoría
	Category   string // coincidencia exacta
	MaxStock   *int   // stock <= MaxStock
	LowStock   bool   // stock <= min_stock
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	// LockByIDs bloquea las filas (SELECT FOR UPDATE) dentro de la transacción en curso.
	// Los ids inexistentes simplemente no aparecen en el mapa.
	LockByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// Update guarda los datos descriptivos y deja en product la fila vigente.
	// No toca el stock: solo cambia con UpdateStock, así no pisa una venta concurrente.
	Update(ctx context.Context, product *entity.Product) error
	UpdateStock(ctx context.Context, id string, stock int, lastUpdated time.Time) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
	// Delete devuelve domain.ErrNotFound si no había fila.
	Delete(ctx context.Context, id string) error
}
