package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/auth"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/sales"
	"github.com/jhoicas/Farmacia-api/internal/application/stats"
	"github.com/jhoicas/Farmacia-api/internal/application/usecase"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Farmacia-api/internal/interfaces/http"
	"github.com/jhoicas/Farmacia-api/internal/testutil"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

type testEnv struct {
	app        *fiber.App
	store      *testutil.Store
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T, receipts testutil.StubReceipts, health func(context.Context) error) *testEnv {
	t.Helper()
	store := testutil.NewStore()
	now := time.Now()
	store.AddUser(&entity.User{ID: "u-admin", Name: "Admin", Email: "admin@farmacia.com", Role: entity.RoleAdmin, CreatedAt: now})
	store.AddUser(&entity.User{ID: "u-1", Name: "Vendedor", Email: "vendedor@farmacia.com", Role: entity.RoleUser, CreatedAt: now})
	store.AddProduct(&entity.Product{
		ID: "p-ibu", Name: "Ibuprofeno 400mg", Category: "Analgésicos",
		Price: decimal.RequireFromString("3.50"), Stock: 5, MinStock: 10,
		CreatedAt: now, LastUpdated: now,
	})

	log := logger.Nop()
	productUC := usecase.NewProductUseCase(store.Products(), testutil.NewMemoryIndexer(), nil, log)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer})
	salesUC := sales.NewUseCase(store.TxRunner(), store.Sales(), productUC, &testutil.RecordingPublisher{}, receipts, log)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   productUC,
		UserUC:      usecase.NewUserUseCase(store.Users()),
		SalesUC:     salesUC,
		StatsUC:     stats.NewDashboardUseCase(store.Stats(), "es", "€"),
		JWTSecret:   testJWTSecret,
		Health:      health,
		ServiceName: "farmacia-test",
	})

	return &testEnv{
		app:        app,
		store:      store,
		adminToken: testutil.Token(t, testJWTSecret, "u-admin", entity.RoleAdmin),
		userToken:  testutil.Token(t, testJWTSecret, "u-1", entity.RoleUser),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestAuth_RegistroLoginVerify(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, raw := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@farmacia.com", "password": "secreto1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var reg dto.AuthResponse
	require.NoError(t, json.Unmarshal(raw, &reg))
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, entity.RoleUser, reg.User.Role)

	resp, raw = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@farmacia.com", "password": "secreto1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var login dto.AuthResponse
	require.NoError(t, json.Unmarshal(raw, &login))

	resp, raw = env.do(t, http.MethodGet, "/api/auth/verify", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ver dto.VerifyResponse
	require.NoError(t, json.Unmarshal(raw, &ver))
	assert.Equal(t, "ana@farmacia.com", ver.User.Email)
}

func TestAuth_EmailDuplicado400(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	body := map[string]string{"name": "Ana", "email": "ana@farmacia.com", "password": "secreto1"}

	resp, _ := env.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	before := env.store.UserCount()

	resp, raw := env.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", decodeError(t, raw).Code)
	assert.Equal(t, before, env.store.UserCount())
}

func TestAuth_ValidacionPorCampo(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, raw := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "no-es-email", "password": "123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	fields := map[string]bool{}
	for _, f := range e.Errors {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestAuth_CredencialesInvalidasMismaRespuesta(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	resp, _ := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@farmacia.com", "password": "secreto1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPass, rawWrong := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@farmacia.com", "password": "otra-clave",
	})
	unknown, rawUnknown := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nadie@farmacia.com", "password": "secreto1",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongPass.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	assert.JSONEq(t, string(rawWrong), string(rawUnknown))
}

// ── Products ──────────────────────────────────────────────────────────────────

func TestProducts_EscrituraSoloAdmin(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	body := map[string]any{"name": "Paracetamol 500mg", "price": "2.25", "stock": 20, "category": "Analgésicos"}

	resp, _ := env.do(t, http.MethodPost, "/api/products", env.userToken, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, http.MethodPost, "/api/products", env.adminToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, entity.DefaultMinStock, p.MinStock)

	resp, raw = env.do(t, http.MethodGet, "/api/products?category=Analg%C3%A9sicos&limit=1", env.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ProductListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 2, list.Page.Total)
	assert.Len(t, list.Items, 1)
	assert.True(t, list.Page.HasNext)
}

func TestProducts_SinTokenYNoEncontrado(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := env.do(t, http.MethodGet, "/api/products/no-existe", env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

func TestProducts_Search(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	resp, raw := env.do(t, http.MethodPost, "/api/products", env.adminToken, map[string]any{
		"name": "Ibuprofeno 600mg", "price": "4.10", "stock": 8, "category": "Analgésicos",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = env.do(t, http.MethodGet, "/api/products/search?q=600", env.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ProductListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Ibuprofeno 600mg", list.Items[0].Name)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func TestSales_StockInsuficienteTrasPrimeraVenta(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	body := map[string]any{"items": []map[string]any{{"productId": "p-ibu", "quantity": 3}}}

	resp, raw := env.do(t, http.MethodPost, "/api/sales", env.userToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.ProcessSaleResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Sale.Total.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, entity.SaleStatusCompleted, out.Sale.Status)
	assert.Equal(t, 2, env.store.Product("p-ibu").Stock)

	resp, raw = env.do(t, http.MethodPost, "/api/sales", env.userToken, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, "Stock insuficiente para el producto Ibuprofeno 400mg. Stock disponible: 2", e.Message)
	assert.Equal(t, 1, env.store.SaleCount())
}

func TestSales_ValidacionYProductoInexistente(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, raw := env.do(t, http.MethodPost, "/api/sales", env.userToken, map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)

	resp, raw = env.do(t, http.MethodPost, "/api/sales", env.userToken, map[string]any{
		"items": []map[string]any{{"productId": "p-ibu", "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)

	resp, raw = env.do(t, http.MethodPost, "/api/sales", env.userToken, map[string]any{
		"items": []map[string]any{{"productId": "p-nada", "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

func TestSales_ConsultaSoloAdminYComprobante(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	resp, raw := env.do(t, http.MethodPost, "/api/sales", env.userToken, map[string]any{
		"items": []map[string]any{{"productId": "p-ibu", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.ProcessSaleResponse
	require.NoError(t, json.Unmarshal(raw, &out))

	resp, _ = env.do(t, http.MethodGet, "/api/sales", env.userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = env.do(t, http.MethodGet, "/api/sales", env.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.SaleListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Vendedor", list.Items[0].User.Name)

	resp, raw = env.do(t, http.MethodGet, "/api/sales/"+out.Sale.ID+"/receipt", env.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))

	resp, _ = env.do(t, http.MethodGet, "/api/sales/no-existe", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorInterno_MensajeGenerico(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{Err: errors.New("fallo del motor pdf")}, nil)
	resp, raw := env.do(t, http.MethodPost, "/api/sales", env.userToken, map[string]any{
		"items": []map[string]any{{"productId": "p-ibu", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.ProcessSaleResponse
	require.NoError(t, json.Unmarshal(raw, &out))

	resp, raw = env.do(t, http.MethodGet, "/api/sales/"+out.Sale.ID+"/receipt", env.adminToken, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "INTERNAL", e.Code)
	assert.NotContains(t, e.Message, "motor pdf")
}

// ── Users ─────────────────────────────────────────────────────────────────────

func TestUsers_Admin(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/users", env.userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, http.MethodPut, "/api/users/u-1", env.adminToken, map[string]string{"email": "admin@farmacia.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", decodeError(t, raw).Code)

	resp, raw = env.do(t, http.MethodPut, "/api/users/u-1", env.adminToken, map[string]string{"role": "pharmacist"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &u))
	assert.Equal(t, "pharmacist", u.Role)
	assert.Equal(t, "Vendedor", u.Name)

	resp, _ = env.do(t, http.MethodDelete, "/api/users/u-1", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/users/u-1", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ── Stats y health ────────────────────────────────────────────────────────────

func TestStatsDashboard_Publico(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)

	resp, raw := env.do(t, http.MethodGet, "/api/stats/dashboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.DashboardStatsDTO
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Stats, 4)
	assert.Equal(t, stats.TitleProducts, out.Stats[0].Title)
	assert.Equal(t, "1", out.Stats[0].Value)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testutil.StubReceipts{}, nil)
	resp, raw := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"status":"ok"`)

	down := newTestEnv(t, testutil.StubReceipts{}, func(context.Context) error { return errors.New("sin conexión") })
	resp, _ = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
