package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

const publishTimeout = 5 * time.Second

// UseCase procesamiento y consulta de ventas.
type UseCase struct {
	tx       TxRunner
	sales    repository.SaleRepository
	catalog  CatalogSync
	events   ports.EventPublisher
	receipts ports.ReceiptGenerator
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. sales es el repositorio de lectura (fuera de transacción).
func NewUseCase(
	tx TxRunner,
	sales repository.SaleRepository,
	catalog CatalogSync,
	events ports.EventPublisher,
	receipts ports.ReceiptGenerator,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		tx:       tx,
		sales:    sales,
		catalog:  catalog,
		events:   events,
		receipts: receipts,
		log:      log,
		now:      time.Now,
	}
}

// ProcessSale valida existencias, descuenta stock y registra la venta en una única transacción.
// Ante cualquier error (producto inexistente, stock insuficiente, precio o total que no cuadran)
// no se modifica ningún producto ni se crea la venta.
func (uc *UseCase) ProcessSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	status, err := validateRequest(in)
	if err != nil {
		return nil, err
	}
	ids := distinctSortedIDs(in.Items)

	var (
		sale       *entity.Sale
		touched    []*entity.Product
		crossedLow []*entity.Product
	)
	err = uc.tx.RunSale(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		// Bloqueo en orden de id para que dos ventas concurrentes no se crucen
		locked, err := productRepo.LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("bloquear productos: %w", err)
		}

		remaining := make(map[string]int, len(locked))
		items := make([]entity.SaleItem, 0, len(in.Items))
		for _, line := range in.Items {
			id := strings.TrimSpace(line.ProductID)
			p, ok := locked[id]
			if !ok {
				return domain.NotFound("producto %s", id)
			}
			available, seen := remaining[id]
			if !seen {
				available = p.Stock
			}
			if available < line.Quantity {
				return &domain.StockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   available,
					Requested:   line.Quantity,
				}
			}
			if line.Price != nil && !line.Price.Equal(p.Price) {
				return domain.InvalidInput("el precio de %s (%s) no coincide con el vigente (%s)",
					p.Name, line.Price.String(), p.Price.String())
			}
			remaining[id] = available - line.Quantity
			items = append(items, entity.SaleItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				Price:       p.Price,
			})
		}

		now := uc.now()
		sale = &entity.Sale{
			ID:       uuid.New().String(),
			Items:    items,
			SaleDate: now,
			UserID:   userID,
			Status:   status,
		}
		sale.Total = sale.ComputeTotal()
		if in.Total != nil && !in.Total.IsZero() && !in.Total.Equal(sale.Total) {
			return domain.InvalidInput("el total enviado (%s) no coincide con el calculado (%s)",
				in.Total.String(), sale.Total.String())
		}

		for _, id := range ids {
			p := locked[id]
			wasLow := p.IsLowStock()
			if err := productRepo.UpdateStock(ctx, id, remaining[id], now); err != nil {
				return fmt.Errorf("actualizar stock de %s: %w", id, err)
			}
			updated := *p
			updated.Stock = remaining[id]
			updated.LastUpdated = now
			touched = append(touched, &updated)
			if !wasLow && updated.IsLowStock() {
				crossedLow = append(crossedLow, &updated)
			}
		}
		if err := saleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("guardar venta: %w", err)
		}
		return nil
	})
	if err != nil {
		if isBusinessError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("procesar venta: %w", err)
	}

	uc.afterCommit(ctx, sale, touched, crossedLow)

	// Se relee para devolver la misma forma que GET /api/sales/:id (vendedor y nombres de producto)
	stored, err := uc.sales.GetByID(ctx, sale.ID)
	if err != nil || stored == nil {
		uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("no se pudo releer la venta confirmada")
		return ToSaleResponse(sale), nil
	}
	return ToSaleResponse(stored), nil
}

// afterCommit refresca el catálogo y publica eventos. Los fallos se registran pero no deshacen la venta.
func (uc *UseCase) afterCommit(ctx context.Context, sale *entity.Sale, touched, crossedLow []*entity.Product) {
	if uc.catalog != nil {
		uc.catalog.Invalidate()
		uc.catalog.ReindexProducts(ctx, touched)
	}
	if uc.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := ports.SaleProcessedEvent{
		SaleID:   sale.ID,
		UserID:   sale.UserID,
		Status:   sale.Status,
		Total:    sale.Total,
		SaleDate: sale.SaleDate,
		Items:    make([]ports.SaleEventLineItem, 0, len(sale.Items)),
	}
	for _, it := range sale.Items {
		ev.Items = append(ev.Items, ports.SaleEventLineItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	if err := uc.events.PublishSaleProcessed(pubCtx, ev); err != nil {
		uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("no se pudo publicar sale.processed")
	}
	for _, p := range crossedLow {
		low := ports.LowStockEvent{
			ProductID:   p.ID,
			ProductName: p.Name,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
			At:          sale.SaleDate,
		}
		if err := uc.events.PublishLowStock(pubCtx, low); err != nil {
			uc.log.Warn().Err(err).Str("product_id", p.ID).Msg("no se pudo publicar product.low_stock")
		}
	}
}

// ListSales lista ventas, más recientes primero, con vendedor y nombres de producto.
func (uc *UseCase) ListSales(ctx context.Context, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.Normalize()
	list, total, err := uc.sales.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *ToSaleResponse(s))
	}
	return &dto.SaleListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// GetSale detalle de una venta.
func (uc *UseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.getSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// Receipt genera el comprobante PDF de una venta.
func (uc *UseCase) Receipt(ctx context.Context, id string) ([]byte, error) {
	sale, err := uc.getSale(ctx, id)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.receipts.GenerateSaleReceipt(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("generar comprobante: %w", err)
	}
	return pdf, nil
}

func (uc *UseCase) getSale(ctx context.Context, id string) (*entity.Sale, error) {
	sale, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		return nil, domain.NotFound("venta %s", id)
	}
	return sale, nil
}

func validateRequest(in dto.CreateSaleRequest) (string, error) {
	if len(in.Items) == 0 {
		return "", domain.InvalidInput("la venta debe contener al menos un producto")
	}
	for i, line := range in.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return "", domain.InvalidInput("línea %d: falta el producto", i+1)
		}
		if line.Quantity < 1 {
			return "", domain.InvalidInput("línea %d: la cantidad debe ser al menos 1", i+1)
		}
		if line.Price != nil && line.Price.IsNegative() {
			return "", domain.InvalidInput("línea %d: el precio no puede ser negativo", i+1)
		}
	}
	if in.Total != nil && in.Total.IsNegative() {
		return "", domain.InvalidInput("el total no puede ser negativo")
	}
	switch in.Status {
	case "":
		return entity.SaleStatusCompleted, nil
	case entity.SaleStatusPending, entity.SaleStatusCompleted:
		return in.Status, nil
	default:
		return "", domain.InvalidInput("estado %q no válido", in.Status)
	}
}

func distinctSortedIDs(items []dto.SaleItemRequest) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock)
}

// ToSaleResponse convierte la venta a DTO.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.Round(2),
			Subtotal:    it.Subtotal().Round(2),
		})
	}
	return &dto.SaleResponse{
		ID:       s.ID,
		Items:    items,
		Total:    s.Total.Round(2),
		SaleDate: s.SaleDate,
		Status:   s.Status,
		User: dto.SaleUserResponse{
			ID:    s.UserID,
			Name:  s.UserName,
			Email: s.UserEmail,
		},
	}
}
