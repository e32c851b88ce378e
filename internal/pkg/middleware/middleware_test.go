package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoestock/internal/domain"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/token"
)

type stubTokens struct {
	claims *token.CustomClaims
	err    error
}

func (s stubTokens) ValidateToken(string) (*token.CustomClaims, error) { return s.claims, s.err }

func okHandler(t *testing.T, wantRole domain.UserRole) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantRole, claims.Role)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("sem header retorna 401", func(t *testing.T) {
		mw := NewAuthMiddleware(stubTokens{})
		rec := httptest.NewRecorder()
		mw(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cart", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body domain.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UNAUTHORIZED", body.Category)
	})

	t.Run("token inválido retorna 401", func(t *testing.T) {
		mw := NewAuthMiddleware(stubTokens{err: errors.New("expirado")})
		req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer xyz")
		rec := httptest.NewRecorder()
		mw(okHandler(t, "")).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token válido anexa claims", func(t *testing.T) {
		mw := NewAuthMiddleware(stubTokens{claims: &token.CustomClaims{UserID: "u1", Role: "customer"}})
		req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer xyz")
		rec := httptest.NewRecorder()
		mw(okHandler(t, domain.RoleCustomer)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestPermissionMiddleware(t *testing.T) {
	admin := PermissionMiddleware(domain.RoleAdmin)

	t.Run("customer recebe 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/stock/update-size", nil)
		req = req.WithContext(WithUserClaims(req.Context(), UserClaims{UserID: "u1", Role: domain.RoleCustomer}))
		rec := httptest.NewRecorder()
		admin(okHandler(t, domain.RoleAdmin)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passa", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/stock/update-size", nil)
		req = req.WithContext(WithUserClaims(req.Context(), UserClaims{UserID: "a1", Role: domain.RoleAdmin}))
		rec := httptest.NewRecorder()
		admin(okHandler(t, domain.RoleAdmin)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("sem claims retorna 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		admin(okHandler(t, domain.RoleAdmin)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	mw := RateLimiter(cache.NewMemoryClient(), logger.NewDiscard(), 2, time.Minute)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
