// seed vacía la base y la puebla con datos de demostración: usuarios, cinco productos,
// ventas del mes en curso y del anterior, y un pedido pendiente.
//
// Uso: go run ./cmd/seed
// Lee la misma configuración que la API (DATABASE_URL / DB_*, ES_URL opcional).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/application/usecase"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/search"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

type seedUser struct {
	name, email, password, role string
}

type seedProduct struct {
	name, description, category, supplier string
	price                                 string
	stock, minStock                       int
	prevMonth                             bool // creado el mes anterior
}

var users = []seedUser{
	{"Administrador", "admin@farmacia.com", "admin123", entity.RoleAdmin},
	{"Vendedor", "vendedor@farmacia.com", "vendedor123", entity.RoleVendedor},
}

var products = []seedProduct{
	{"Paracetamol 500mg", "Analgésico y antipirético", "Analgésicos", "Laboratorios Cinfa", "2.50", 150, 20, true},
	{"Ibuprofeno 400mg", "Antiinflamatorio no esteroideo", "Antiinflamatorios", "Laboratorios Normon", "3.75", 8, 15, true},
	{"Amoxicilina 500mg", "Antibiótico de amplio espectro", "Antibióticos", "Sandoz", "7.90", 45, 10, true},
	{"Omeprazol 20mg", "Protector gástrico", "Digestivos", "Laboratorios Kern", "4.20", 3, 10, false},
	{"Loratadina 10mg", "Antihistamínico", "Antialérgicos", "Bayer", "5.10", 60, 10, false},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `TRUNCATE sale_items, sales, products, users`); err != nil {
		return fmt.Errorf("vaciar tablas: %w", err)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonth := monthStart.AddDate(0, -1, 0)

	// ── Usuarios ───────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(pool)
	var sellerID string
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user := &entity.User{
			ID: uuid.New().String(), Name: u.name, Email: u.email,
			PasswordHash: string(hash), Role: u.role, CreatedAt: now, UpdatedAt: now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("crear usuario %s: %w", u.email, err)
		}
		if u.role == entity.RoleVendedor {
			sellerID = user.ID
		}
		log.Info().Str("email", u.email).Str("role", u.role).Msg("usuario creado")
	}

	// ── Productos ──────────────────────────────────────────────────────────────
	productRepo := postgres.NewProductRepository(pool)
	seeded := make([]*entity.Product, 0, len(products))
	for _, sp := range products {
		created := now
		if sp.prevMonth {
			created = prevMonth.AddDate(0, 0, 3)
		}
		p := &entity.Product{
			ID: uuid.New().String(), Name: sp.name, Description: sp.description,
			Price: decimal.RequireFromString(sp.price), Stock: sp.stock,
			Category: sp.category, Supplier: sp.supplier, MinStock: sp.minStock,
			LastUpdated: created, CreatedAt: created,
		}
		if err := productRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("crear producto %s: %w", sp.name, err)
		}
		seeded = append(seeded, p)
	}
	log.Info().Int("count", len(seeded)).Msg("productos creados")

	// ── Ventas ─────────────────────────────────────────────────────────────────
	saleRepo := postgres.NewSaleRepository(pool)
	newSale := func(date time.Time, status string, lines ...entity.SaleItem) *entity.Sale {
		s := &entity.Sale{ID: uuid.New().String(), Items: lines, SaleDate: date, UserID: sellerID, Status: status}
		s.Total = s.ComputeTotal()
		return s
	}
	line := func(p *entity.Product, qty int) entity.SaleItem {
		return entity.SaleItem{ProductID: p.ID, Quantity: qty, Price: p.Price}
	}
	salesToSeed := []*entity.Sale{
		newSale(prevMonth.AddDate(0, 0, 5), entity.SaleStatusCompleted, line(seeded[0], 10), line(seeded[2], 2)),
		newSale(prevMonth.AddDate(0, 0, 12), entity.SaleStatusCompleted, line(seeded[1], 4)),
		newSale(now.Add(-2*time.Hour), entity.SaleStatusCompleted, line(seeded[0], 6), line(seeded[4], 3)),
		newSale(now.Add(-time.Hour), entity.SaleStatusCompleted, line(seeded[2], 1), line(seeded[3], 2)),
		newSale(now.Add(-30*time.Minute), entity.SaleStatusPending, line(seeded[1], 2)),
	}
	for _, s := range salesToSeed {
		if err := saleRepo.Create(ctx, s); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
	}
	log.Info().Int("count", len(salesToSeed)).Msg("ventas creadas")

	// ── Índice de búsqueda ─────────────────────────────────────────────────────
	if cfg.Elastic.Enabled() {
		esClient, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			return err
		}
		esIndexer := search.NewElasticIndexer(esClient, cfg.Elastic.Index)
		if err := esIndexer.EnsureIndex(ctx); err != nil {
			return err
		}
		var indexer ports.ProductIndexer = esIndexer
		n, err := usecase.NewProductUseCase(productRepo, indexer, nil, log).Reindex(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("count", n).Msg("productos indexados")
	}

	log.Info().Msg("seed completado")
	return nil
}
