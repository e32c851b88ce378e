package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("segredo-de-teste", time.Hour)

	tok, err := svc.GenerateToken("u1", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "ShoeStock-API", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tok, err := NewService("a", time.Hour).GenerateToken("u1", "customer")
	require.NoError(t, err)

	_, err = NewService("b", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("segredo", -time.Minute)
	tok, err := svc.GenerateToken("u1", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}

func TestGenerateToken_RejectsUnknownRole(t *testing.T) {
	_, err := NewService("segredo", time.Hour).GenerateToken("u1", "root")
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = NewService("segredo", time.Hour).GenerateToken("", "admin")
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	claims := CustomClaims{
		UserID: "u1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "outro-servico",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("segredo"))
	require.NoError(t, err)

	_, err = NewService("segredo", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := CustomClaims{
		UserID: "u1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("segredo"))
	require.NoError(t, err)

	_, err = NewService("segredo", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateToken_UsesClock(t *testing.T) {
	svc := NewService("segredo", time.Minute)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	tok, err := svc.GenerateToken("u1", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}
