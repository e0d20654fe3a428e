package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/auth"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/testutil"
	pkgjwt "github.com/jhoicas/Farmacia-api/pkg/jwt"
)

const secret = "test-secret"

func newAuth() (*auth.AuthUseCase, *testutil.Store) {
	store := testutil.NewStore()
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "farmacia-test"}), store
}

func TestRegister_DevuelveTokenYRolPorDefecto(t *testing.T) {
	uc, _ := newAuth()

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: " Ana@Farmacia.com ", Password: "secreta1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, out.User.Role)
	assert.Equal(t, "ana@farmacia.com", out.User.Email)

	userID, role, err := pkgjwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
	assert.Equal(t, entity.RoleUser, role)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc, store := newAuth()
	ctx := context.Background()
	in := dto.RegisterRequest{Name: "Ana", Email: "ana@farmacia.com", Password: "secreta1"}

	_, err := uc.RegisterUser(ctx, in)
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Equal(t, 1, store.UserCount())
}

func TestRegister_NoPermiteAdmin(t *testing.T) {
	uc, _ := newAuth()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Name: "X", Email: "x@farmacia.com", Password: "secreta1", Role: entity.RoleAdmin,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_MismoErrorParaEmailYPassword(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Name: "Ana", Email: "ana@farmacia.com", Password: "secreta1"})
	require.NoError(t, err)

	ok, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@farmacia.com", Password: "secreta1"})
	require.NoError(t, err)
	assert.NotEmpty(t, ok.Token)

	_, errPass := uc.Login(ctx, dto.LoginRequest{Email: "ana@farmacia.com", Password: "otra"})
	_, errEmail := uc.Login(ctx, dto.LoginRequest{Email: "nadie@farmacia.com", Password: "secreta1"})
	assert.ErrorIs(t, errPass, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, errPass.Error(), errEmail.Error())
}

func TestVerify_UsuarioEliminado(t *testing.T) {
	uc, store := newAuth()
	ctx := context.Background()
	out, err := uc.RegisterUser(ctx, dto.RegisterRequest{Name: "Ana", Email: "ana@farmacia.com", Password: "secreta1"})
	require.NoError(t, err)

	got, err := uc.Verify(ctx, out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	require.NoError(t, store.Users().Delete(ctx, out.User.ID))
	_, err = uc.Verify(ctx, out.User.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureAdmin_Idempotente(t *testing.T) {
	uc, store := newAuth()
	ctx := context.Background()

	created, err := uc.EnsureAdmin(ctx, "Administrador", "admin@farmacia.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, "Administrador", "admin@farmacia.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, store.UserCount())

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "admin@farmacia.com", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)

	created, err = uc.EnsureAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created, "sin credenciales no se crea nada")
}
