// Package testutil repositorios en memoria y utilidades para tests sin base de datos.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/jwt"
)

// Store datos compartidos por los repositorios en memoria.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[string]*entity.User
	products map[string]*entity.Product
	sales    []*entity.Sale

	// FailSaleCreate si no es nil, SaleRepo.Create lo devuelve (simula un fallo a mitad de transacción).
	FailSaleCreate error
	// BeforeProductUpdate se ejecuta al entrar en ProductRepo.Update, antes de escribir.
	BeforeProductUpdate func(ctx context.Context, id string)
	// AfterProductList se ejecuta cuando ProductRepo.List ya leyó, antes de devolver.
	AfterProductList func(ctx context.Context)
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		users:    map[string]*entity.User{},
		products: map[string]*entity.Product{},
	}
}

// Products repositorio de productos sobre el store.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Users repositorio de usuarios sobre el store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Sales repositorio de ventas sobre el store.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// Stats repositorio de estadísticas sobre el store.
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s: s} }

// TxRunner runner transaccional sobre el store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// AddProduct inserta un producto directamente (fixtures).
func (s *Store) AddProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

// AddUser inserta un usuario directamente (fixtures).
func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// AddSale inserta una venta directamente (fixtures).
func (s *Store) AddSale(sale *entity.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, copySale(sale))
}

// Product copia del producto o nil.
func (s *Store) Product(id string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// SaleCount número de ventas guardadas.
func (s *Store) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

// UserCount número de usuarios guardados.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// ── Productos ─────────────────────────────────────────────────────────────────

// ProductRepo implementación en memoria de repository.ProductRepository.
type ProductRepo struct{ s *Store }

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.AddProduct(p)
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.s.Product(id), nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ProductRepo) LockByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	list, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	if r.s.BeforeProductUpdate != nil {
		r.s.BeforeProductUpdate(ctx, p.ID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *p
	cp.Stock = cur.Stock
	r.s.products[p.ID] = &cp
	*p = cp
	return nil
}

func (r *ProductRepo) UpdateStock(_ context.Context, id string, stock int, lastUpdated time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if stock < 0 {
		return domain.ErrInsufficientStock
	}
	p.Stock = stock
	p.LastUpdated = lastUpdated
	return nil
}

func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	if hook := r.s.AfterProductList; hook != nil {
		defer hook(ctx)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	var matched []*entity.Product
	for _, p := range r.s.products {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MaxStock != nil && p.Stock > *f.MaxStock {
			continue
		}
		if f.LowStock && !p.IsLowStock() {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	return paginate(matched, f.Limit, f.Offset), total, nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.NotFound("producto %s", id)
	}
	delete(r.s.products, id)
	return nil
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

// UserRepo implementación en memoria de repository.UserRepository.
type UserRepo struct{ s *Store }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return paginate(list, limit, offset), len(list), nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

// ── Ventas ────────────────────────────────────────────────────────────────────

// SaleRepo implementación en memoria de repository.SaleRepository.
type SaleRepo struct{ s *Store }

var _ repository.SaleRepository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if r.s.FailSaleCreate != nil {
		return r.s.FailSaleCreate
	}
	r.s.AddSale(sale)
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sale := range r.s.sales {
		if sale.ID == id {
			return r.s.enrich(sale), nil
		}
	}
	return nil, nil
}

func (r *SaleRepo) List(_ context.Context, limit, offset int) ([]*entity.Sale, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*entity.Sale, 0, len(r.s.sales))
	for _, sale := range r.s.sales {
		list = append(list, r.s.enrich(sale))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].SaleDate.After(list[j].SaleDate) })
	return paginate(list, limit, offset), len(list), nil
}

// enrich completa vendedor y nombres de producto. Requiere s.mu tomado.
func (s *Store) enrich(sale *entity.Sale) *entity.Sale {
	out := copySale(sale)
	if u, ok := s.users[out.UserID]; ok {
		out.UserName = u.Name
		out.UserEmail = u.Email
	}
	for i := range out.Items {
		if p, ok := s.products[out.Items[i].ProductID]; ok {
			out.Items[i].ProductName = p.Name
		}
	}
	return out
}

// ── Estadísticas ──────────────────────────────────────────────────────────────

// StatsRepo implementación en memoria de repository.StatsRepository.
type StatsRepo struct{ s *Store }

var _ repository.StatsRepository = (*StatsRepo)(nil)

func (r *StatsRepo) CountProducts(_ context.Context, before *time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.products {
		if before == nil || p.CreatedAt.Before(*before) {
			n++
		}
	}
	return n, nil
}

func (r *StatsRepo) SumSales(_ context.Context, status string, from, to time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, sale := range r.s.sales {
		if sale.Status == status && !sale.SaleDate.Before(from) && sale.SaleDate.Before(to) {
			sum = sum.Add(sale.Total)
		}
	}
	return sum, nil
}

func (r *StatsRepo) CountSales(_ context.Context, status string, before *time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, sale := range r.s.sales {
		if sale.Status == status && (before == nil || sale.SaleDate.Before(*before)) {
			n++
		}
	}
	return n, nil
}

func (r *StatsRepo) CountLowStock(_ context.Context, before *time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.products {
		if p.IsLowStock() && (before == nil || p.LastUpdated.Before(*before)) {
			n++
		}
	}
	return n, nil
}

// ── Transacciones ─────────────────────────────────────────────────────────────

// TxRunner serializa las transacciones y restaura el estado si fn falla.
type TxRunner struct{ s *Store }

// RunSale ejecuta fn con repositorios del store; ante error deshace productos y ventas.
func (t *TxRunner) RunSale(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.Lock()
	snapshot := make(map[string]entity.Product, len(t.s.products))
	for id, p := range t.s.products {
		snapshot[id] = *p
	}
	salesLen := len(t.s.sales)
	t.s.mu.Unlock()

	if err := fn(t.s.Products(), t.s.Sales()); err != nil {
		t.s.mu.Lock()
		t.s.products = make(map[string]*entity.Product, len(snapshot))
		for id, p := range snapshot {
			cp := p
			t.s.products[id] = &cp
		}
		t.s.sales = t.s.sales[:salesLen]
		t.s.mu.Unlock()
		return err
	}
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Token firma un JWT de prueba con el rol indicado.
func Token(t *testing.T, secret, userID, role string) string {
	t.Helper()
	tok, err := jwt.Generate(secret, userID, role, "farmacia-test", 60)
	if err != nil {
		t.Fatalf("firmar token: %v", err)
	}
	return tok
}

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = append([]entity.SaleItem(nil), s.Items...)
	return &cp
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}
