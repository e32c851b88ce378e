package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shoestock/internal/domain"
)

// Issuer é o emissor gravado e exigido em todos os tokens da loja.
const Issuer = "ShoeStock-API"

// ErrUnknownRole é devolvido ao emitir token para um papel inexistente.
var ErrUnknownRole = errors.New("papel de usuário desconhecido")

// CustomClaims são as claims da sessão: o usuário e o seu papel.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service emite e valida JWTs HS256.
type Service struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// NewService cria o serviço de tokens com a chave e a validade informadas.
func NewService(secretKey string, expiry time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
}

func knownRole(role string) bool {
	switch domain.UserRole(role) {
	case domain.RoleAdmin, domain.RoleCustomer:
		return true
	}
	return false
}

// GenerateToken emite um token para o usuário. Papéis fora de admin/customer são recusados.
func (s *Service) GenerateToken(userID string, userRole string) (string, error) {
	if userID == "" {
		return "", errors.New("usuário sem ID")
	}
	if !knownRole(userRole) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, userRole)
	}

	issuedAt := s.now()
	claims := CustomClaims{
		UserID: userID,
		Role:   userRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    Issuer,
			Subject:   userID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return signed, nil
}

// ValidateToken confere assinatura, emissor e validade, e devolve as claims.
func (s *Service) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token não é válido")
	}
	if claims.UserID == "" || !knownRole(claims.Role) {
		return nil, errors.New("token sem usuário ou com papel desconhecido")
	}
	return claims, nil
}
