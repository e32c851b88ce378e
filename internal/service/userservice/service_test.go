package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/repository/memory"
	"shoestock/internal/service/userservice"
)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenService)
	svc := userservice.NewService(memory.NewUserStore(), tokens, logger.NewDiscard())

	user, err := svc.Register(ctx, domain.UserRegistration{Name: "Ana", Email: " Ana@Shop.vn ", Password: "segredo1"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana@shop.vn", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.NotEqual(t, "segredo1", user.PasswordHash)

	tokens.On("GenerateToken", user.ID, "customer").Return("jwt-token", nil)

	tok, err := svc.Login(ctx, "ana@shop.vn", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", tok)
	tokens.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := userservice.NewService(memory.NewUserStore(), new(MockTokenService), logger.NewDiscard())

	_, err := svc.Register(ctx, domain.UserRegistration{Email: "a@b.vn", Password: "123456"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.UserRegistration{Email: "A@b.vn", Password: "123456"})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRegister_Validation(t *testing.T) {
	svc := userservice.NewService(memory.NewUserStore(), new(MockTokenService), logger.NewDiscard())

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "a@b.vn", Password: "123"})
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)

	_, err = svc.Register(context.Background(), domain.UserRegistration{Password: "123456"})
	assert.ErrorAs(t, err, &valErr)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenService)
	svc := userservice.NewService(memory.NewUserStore(), tokens, logger.NewDiscard())
	_, err := svc.Register(ctx, domain.UserRegistration{Email: "a@b.vn", Password: "123456"})
	require.NoError(t, err)

	var unauthorized *apperror.UnauthorizedError

	_, err = svc.Login(ctx, "a@b.vn", "errada")
	assert.ErrorAs(t, err, &unauthorized)

	_, err = svc.Login(ctx, "ninguem@b.vn", "123456")
	assert.ErrorAs(t, err, &unauthorized)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorAs(t, err, &unauthorized)

	tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
}

func TestLogin_TokenFailure(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenService)
	svc := userservice.NewService(memory.NewUserStore(), tokens, logger.NewDiscard())
	user, err := svc.Register(ctx, domain.UserRegistration{Email: "a@b.vn", Password: "123456"})
	require.NoError(t, err)
	tokens.On("GenerateToken", user.ID, "customer").Return("", errors.New("sem chave"))

	_, err = svc.Login(ctx, "a@b.vn", "123456")

	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()
	tokens := new(MockTokenService)
	svc := userservice.NewService(store, tokens, logger.NewDiscard())

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@shop.vn", "admin123"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@shop.vn", "outra"), "segunda chamada não recria")
	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))

	admin, err := store.FindByEmail(ctx, "admin@shop.vn")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	tokens.On("GenerateToken", admin.ID, "admin").Return("admin-token", nil)
	tok, err := svc.Login(ctx, "admin@shop.vn", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin-token", tok)
}
