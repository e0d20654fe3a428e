package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/cache"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// ProductUseCase casos de uso CRUD para productos. Es dueño de la caché del listado.
type ProductUseCase struct {
	repo    repository.ProductRepository
	indexer ports.ProductIndexer
	cache   *cache.TTLCache[*dto.ProductListResponse]
	log     *logger.Logger
	now     func() time.Time
}

// NewProductUseCase construye el caso de uso. indexer puede ser el adaptador nulo.
func NewProductUseCase(
	repo repository.ProductRepository,
	indexer ports.ProductIndexer,
	listCache *cache.TTLCache[*dto.ProductListResponse],
	log *logger.Logger,
) *ProductUseCase {
	if listCache == nil {
		listCache = cache.NewTTLCache[*dto.ProductListResponse](0)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, indexer: indexer, cache: listCache, log: log, now: time.Now}
}

// Create crea un producto. MinStock toma el valor por defecto si no se indica.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !in.Price.IsPositive() {
		return nil, domain.InvalidInput("el precio debe ser mayor que cero")
	}
	minStock := entity.DefaultMinStock
	if in.MinStock != nil {
		minStock = *in.MinStock
	}
	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       *in.Stock,
		Category:    strings.TrimSpace(in.Category),
		Supplier:    in.Supplier,
		MinStock:    minStock,
		LastUpdated: now,
		CreatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	uc.afterWrite(ctx, product)
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto. No modifica nada.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("producto %s", id)
	}
	return ToProductResponse(product), nil
}

// Update aplica una actualización parcial.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("producto %s", id)
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, domain.InvalidInput("el precio debe ser mayor que cero")
		}
		product.Price = *in.Price
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.Supplier != nil {
		product.Supplier = *in.Supplier
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	product.LastUpdated = uc.now()
	// El stock se fija aparte y solo si viene en la petición; Update no lo escribe
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, domain.InvalidInput("el stock no puede ser negativo")
		}
		if err := uc.repo.UpdateStock(ctx, id, *in.Stock, product.LastUpdated); err != nil {
			return nil, fmt.Errorf("actualizar stock: %w", err)
		}
	}
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	uc.afterWrite(ctx, product)
	return ToProductResponse(product), nil
}

// Delete elimina un producto. Las ventas que lo referencian se conservan.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminar producto: %w", err)
	}
	uc.cache.Invalidate()
	if err := uc.indexer.Remove(ctx, id); err != nil {
		uc.log.Warn().Err(err).Str("product_id", id).Msg("no se pudo quitar el producto del índice")
	}
	return nil
}

// List listado paginado y filtrado, ordenado por nombre. Sirve desde caché mientras no haya escrituras.
func (uc *ProductUseCase) List(ctx context.Context, in dto.ProductListRequest) (*dto.ProductListResponse, error) {
	in.Normalize()
	key := listCacheKey(in)
	if cached, ok := uc.cache.Get(key); ok {
		return cached, nil
	}
	gen := uc.cache.Generation()
	filter := repository.ProductFilter{
		SearchTerm: strings.TrimSpace(in.SearchTerm),
		Category:   strings.TrimSpace(in.Category),
		MaxStock:   in.MinStock,
		LowStock:   in.LowStock,
		Limit:      in.Limit,
		Offset:     in.Offset(),
	}
	list, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	out := &dto.ProductListResponse{
		Items: toProductResponses(list),
		Page:  dto.NewPageResponse(in.PageRequest, total),
	}
	// Si hubo una escritura durante la lectura, este resultado ya no se guarda
	uc.cache.SetIfGeneration(key, out, gen)
	return out, nil
}

// Search búsqueda de texto libre. Usa el índice si está activo y cae al filtro SQL si falla.
func (uc *ProductUseCase) Search(ctx context.Context, query string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.Normalize()
	query = strings.TrimSpace(query)
	if query == "" || !uc.indexer.Enabled() {
		return uc.List(ctx, dto.ProductListRequest{PageRequest: page, SearchTerm: query})
	}
	ids, total, err := uc.indexer.Search(ctx, query, page.Offset(), page.Limit)
	if err != nil {
		uc.log.Warn().Err(err).Str("query", query).Msg("búsqueda en índice falló, se usa la base de datos")
		return uc.List(ctx, dto.ProductListRequest{PageRequest: page, SearchTerm: query})
	}
	found, err := uc.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hidratar resultados: %w", err)
	}
	byID := make(map[string]*entity.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	// Orden por relevancia; los ids que ya no existen en la base se descartan
	items := make([]dto.ProductResponse, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, *ToProductResponse(p))
		}
	}
	return &dto.ProductListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// Invalidate descarta el listado en caché. Lo usa también el procesamiento de ventas.
func (uc *ProductUseCase) Invalidate() {
	uc.cache.Invalidate()
}

// Reindex vuelve a cargar todos los productos en el índice de búsqueda.
func (uc *ProductUseCase) Reindex(ctx context.Context) (int, error) {
	if !uc.indexer.Enabled() {
		return 0, nil
	}
	const batch = 100
	indexed := 0
	for offset := 0; ; offset += batch {
		list, _, err := uc.repo.List(ctx, repository.ProductFilter{Limit: batch, Offset: offset})
		if err != nil {
			return indexed, fmt.Errorf("reindexar: %w", err)
		}
		for _, p := range list {
			if err := uc.indexer.Index(ctx, p); err != nil {
				return indexed, fmt.Errorf("reindexar %s: %w", p.ID, err)
			}
			indexed++
		}
		if len(list) < batch {
			return indexed, nil
		}
	}
}

// ReindexProducts refresca en el índice los productos cuyo stock cambió tras una venta.
func (uc *ProductUseCase) ReindexProducts(ctx context.Context, products []*entity.Product) {
	for _, p := range products {
		if err := uc.indexer.Index(ctx, p); err != nil {
			uc.log.Warn().Err(err).Str("product_id", p.ID).Msg("no se pudo reindexar el producto")
		}
	}
}

func (uc *ProductUseCase) afterWrite(ctx context.Context, p *entity.Product) {
	uc.cache.Invalidate()
	if err := uc.indexer.Index(ctx, p); err != nil {
		uc.log.Warn().Err(err).Str("product_id", p.ID).Msg("no se pudo indexar el producto")
	}
}

func listCacheKey(in dto.ProductListRequest) string {
	maxStock := "-"
	if in.MinStock != nil {
		maxStock = strconv.Itoa(*in.MinStock)
	}
	return strings.Join([]string{
		strconv.Itoa(in.Page),
		strconv.Itoa(in.Limit),
		strings.ToLower(strings.TrimSpace(in.SearchTerm)),
		strings.TrimSpace(in.Category),
		maxStock,
		strconv.FormatBool(in.LowStock),
	}, "|")
}

// ToProductResponse convierte la entidad a DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Round(2),
		Stock:       p.Stock,
		Category:    p.Category,
		Supplier:    p.Supplier,
		MinStock:    p.MinStock,
		LowStock:    p.IsLowStock(),
		LastUpdated: p.LastUpdated,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductResponses(list []*entity.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out
}
