package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/gestao-clientes/internal/auth"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
)

var (
	// ErrInvalidCredentials indica falha na autenticação. É idêntico para
	// e-mail inexistente e senha errada, para não permitir enumeração.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrContaDesativada indica conta desativada por remoção lógica.
	ErrContaDesativada = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido, expirado ou rotacionado.
	// Qualquer falha no fluxo de refresh colapsa neste erro.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, hash *string) error
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, presentedHash, newHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões. O Postgres é a
// fonte de verdade do refresh corrente por usuário; o Redis carrega uma cópia
// apenas como atalho de rejeição.
type AuthService struct {
	repo  authRepository
	redis redisCommander
	jwt   *auth.JWTManager
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// TokenPair é o retorno padrão de login e refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Perfil é a projeção pública de identidade. Senha e estado de refresh
// nunca aparecem aqui.
type Perfil struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Nome     string `json:"name"`
	Email    string `json:"email"`
	Papel    string `json:"role"`
}

// Login autentica por e-mail e senha e emite o par de tokens, registrando o
// refresh emitido como o único válido para o usuário.
func (s *AuthService) Login(ctx context.Context, email, senha string) (*TokenPair, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: falha ao verificar senha")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if !user.Ativo {
		return nil, ErrContaDesativada
	}

	pair, hash, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, &hash); err != nil {
		return nil, err
	}
	s.cacheRefresh(ctx, user.ID, hash)

	return pair, nil
}

// Refresh troca um refresh token válido por um novo par, rejeitando qualquer
// token que não seja o corrente. A comparação e a troca acontecem sob lock de
// linha no banco: duas chamadas concorrentes com o mesmo token antigo jamais
// vencem ambas.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	claims, err := s.jwt.ParseAndValidate(rawToken)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	presentedHash := auth.HashRefreshToken(rawToken)

	// Atalho: se o Redis tem o hash corrente e ele difere do apresentado,
	// rejeita sem tocar o banco. Ausência ou indisponibilidade do Redis não
	// autoriza nada; a decisão final é sempre do banco.
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, auth.RefreshRedisKey(subject.String())).Result(); err == nil && cached != presentedHash {
			return nil, ErrRefreshInvalid
		}
	}

	// Re-resolve o usuário pelo e-mail das claims; conta removida ou
	// desativada invalida o refresh.
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(claims.Email))
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	if !user.Ativo {
		return nil, ErrRefreshInvalid
	}

	pair, newHash, err := s.mintPair(user)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	if err := s.repo.RotateRefreshToken(ctx, user.ID, presentedHash, newHash); err != nil {
		return nil, ErrRefreshInvalid
	}
	s.cacheRefresh(ctx, user.ID, newHash)

	return pair, nil
}

// Logout descarta o refresh corrente do usuário. Tokens de acesso já
// emitidos permanecem válidos até expirar naturalmente.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.SetRefreshToken(ctx, userID, nil); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, auth.RefreshRedisKey(userID.String())).Err(); err != nil && err != redis.Nil {
			log.Warn().Err(err).Msg("logout: falha ao limpar cache de refresh")
		}
	}
	return nil
}

// GetProfile devolve a projeção pública do usuário.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*Perfil, error) {
	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Perfil{
		ID:       user.ID.String(),
		TenantID: user.TenantID,
		Nome:     user.Nome,
		Email:    user.Email,
		Papel:    user.Papel,
	}, nil
}

func (s *AuthService) mintPair(user repo.Usuario) (*TokenPair, string, error) {
	identity := auth.Identity{
		Subject:  user.ID.String(),
		TenantID: user.TenantID,
		Papel:    user.Papel,
		Nome:     user.Nome,
		Email:    user.Email,
	}

	access, err := s.jwt.GenerateAccessToken(identity)
	if err != nil {
		return nil, "", err
	}
	refresh, err := s.jwt.GenerateRefreshToken(identity)
	if err != nil {
		return nil, "", err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, auth.HashRefreshToken(refresh), nil
}

func (s *AuthService) cacheRefresh(ctx context.Context, userID uuid.UUID, hash string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(userID.String()), hash, s.jwt.RefreshTTL()).Err(); err != nil {
		log.Warn().Err(err).Msg("refresh: falha ao atualizar cache")
	}
}
