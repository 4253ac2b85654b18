package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid é retornado quando assinatura, estrutura ou expiração falham.
var ErrTokenInvalid = errors.New("token inválido")

// Claims representa as informações presentes nos tokens de acesso e refresh.
// Ambos compartilham o mesmo formato e a mesma chave; apenas o TTL difere.
type Claims struct {
	TenantID string `json:"tenantId"`
	Papel    string `json:"role"`
	Nome     string `json:"name"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Identity agrupa os campos de identidade embutidos em um token.
type Identity struct {
	Subject  string
	TenantID string
	Papel    string
	Nome     string
	Email    string
}

// JWTManager encapsula geração, validação e decodificação de tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTLs configurados.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL expõe o TTL do token de acesso.
func (m *JWTManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL expõe o TTL do token de refresh.
func (m *JWTManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateAccessToken cria um JWT HS256 de vida curta com claims de identidade.
func (m *JWTManager) GenerateAccessToken(id Identity) (string, error) {
	return m.generate(id, m.accessTTL)
}

// GenerateRefreshToken cria um JWT HS256 de vida longa com o mesmo formato.
func (m *JWTManager) GenerateRefreshToken(id Identity) (string, error) {
	return m.generate(id, m.refreshTTL)
}

func (m *JWTManager) generate(id Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		TenantID: id.TenantID,
		Papel:    id.Papel,
		Nome:     id.Nome,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAndValidate verifica assinatura e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Decode lê as claims sem verificar assinatura. Serve apenas para exibição
// no cliente; nunca deve alimentar decisão de autorização no servidor.
func (m *JWTManager) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser()

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
