package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbanbyte/gestao-clientes/internal/auth"
	"github.com/urbanbyte/gestao-clientes/internal/rbac"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/util"
)

type usuarioRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioScoped(ctx context.Context, id uuid.UUID, tenantID string) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, id uuid.UUID, tenantID string, arg repo.UpdateUsuarioParams) (repo.Usuario, error)
	DeactivateUsuario(ctx context.Context, id uuid.UUID, tenantID string) error
	ListUsuarios(ctx context.Context, filtro repo.FiltroUsuarios) ([]repo.Usuario, int64, error)
}

// UsuarioService opera o CRUD de usuários. O tenant vem sempre da sessão do
// chamador; o e-mail é único globalmente, não por tenant.
type UsuarioService struct {
	repo usuarioRepository
}

// NewUsuarioService cria novo serviço.
func NewUsuarioService(r usuarioRepository) *UsuarioService {
	return &UsuarioService{repo: r}
}

// UsuarioDTO é a representação pública de um usuário. O hash da senha e o
// estado de refresh jamais saem do serviço.
type UsuarioDTO struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Nome         string    `json:"name"`
	Email        string    `json:"email"`
	Papel        string    `json:"role"`
	Ativo        bool      `json:"isActive"`
	CriadoEm     time.Time `json:"createdAt"`
	AtualizadoEm time.Time `json:"updatedAt"`
}

// UsuariosPage é o envelope paginado da listagem.
type UsuariosPage struct {
	Data []UsuarioDTO `json:"data"`
	Meta Meta         `json:"meta"`
}

// CriarUsuarioInput agrupa o payload de criação.
type CriarUsuarioInput struct {
	Nome  string
	Email string
	Senha string
	Papel string
}

// AtualizarUsuarioInput agrupa o payload de edição. Senha vazia preserva a atual.
type AtualizarUsuarioInput struct {
	Nome  string
	Email string
	Senha string
}

// FiltroUsuarios parametriza a listagem.
type FiltroUsuarios struct {
	Nome  string
	Email string
	Papel string
	Page  int
	Limit int
}

// Criar valida o payload, garante unicidade de e-mail e insere o usuário com
// o tenant do chamador.
func (s *UsuarioService) Criar(ctx context.Context, tenantID string, input CriarUsuarioInput) (*UsuarioDTO, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, validacao(err)
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, validacao(err)
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return nil, validacao(err)
	}
	if !rbac.PapelValido(input.Papel) {
		return nil, validacaoMsg("papel deve ser ADMIN, USER ou GUEST")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.repo.GetUsuarioByEmail(ctx, email); err == nil {
		return nil, repo.ErrEmailEmUso
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	usuario, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		TenantID:  tenantID,
		Nome:      strings.TrimSpace(input.Nome),
		Email:     email,
		SenhaHash: hash,
		Papel:     strings.ToUpper(strings.TrimSpace(input.Papel)),
	})
	if err != nil {
		return nil, err
	}

	dto := toUsuarioDTO(usuario)
	return &dto, nil
}

// Listar devolve a página de usuários do tenant com filtros opcionais.
func (s *UsuarioService) Listar(ctx context.Context, tenantID string, filtro FiltroUsuarios) (*UsuariosPage, error) {
	page, limit := normalizePage(filtro.Page, filtro.Limit)

	usuarios, total, err := s.repo.ListUsuarios(ctx, repo.FiltroUsuarios{
		TenantID: tenantID,
		Nome:     strings.TrimSpace(filtro.Nome),
		Email:    strings.TrimSpace(filtro.Email),
		Papel:    strings.TrimSpace(filtro.Papel),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	data := make([]UsuarioDTO, 0, len(usuarios))
	for _, u := range usuarios {
		data = append(data, toUsuarioDTO(u))
	}

	return &UsuariosPage{Data: data, Meta: buildMeta(total, page, limit)}, nil
}

// Buscar devolve um usuário do tenant por id.
func (s *UsuarioService) Buscar(ctx context.Context, tenantID string, id uuid.UUID) (*UsuarioDTO, error) {
	usuario, err := s.repo.GetUsuarioScoped(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	dto := toUsuarioDTO(usuario)
	return &dto, nil
}

// Atualizar edita nome, e-mail e opcionalmente a senha, reverificando a
// unicidade do novo e-mail.
func (s *UsuarioService) Atualizar(ctx context.Context, tenantID string, id uuid.UUID, input AtualizarUsuarioInput) (*UsuarioDTO, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, validacao(err)
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, validacao(err)
	}

	atual, err := s.repo.GetUsuarioScoped(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != atual.Email {
		if _, err := s.repo.GetUsuarioByEmail(ctx, email); err == nil {
			return nil, repo.ErrEmailEmUso
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	params := repo.UpdateUsuarioParams{
		Nome:  strings.TrimSpace(input.Nome),
		Email: email,
	}
	if input.Senha != "" {
		if err := util.ValidatePassword(input.Senha); err != nil {
			return nil, validacao(err)
		}
		hash, err := auth.Hash(input.Senha)
		if err != nil {
			return nil, err
		}
		params.SenhaHash = &hash
	}

	usuario, err := s.repo.UpdateUsuario(ctx, id, tenantID, params)
	if err != nil {
		return nil, err
	}

	dto := toUsuarioDTO(usuario)
	return &dto, nil
}

// Remover desativa o usuário (remoção lógica, como nos clientes).
func (s *UsuarioService) Remover(ctx context.Context, tenantID string, id uuid.UUID) error {
	return s.repo.DeactivateUsuario(ctx, id, tenantID)
}

func toUsuarioDTO(u repo.Usuario) UsuarioDTO {
	return UsuarioDTO{
		ID:           u.ID.String(),
		TenantID:     u.TenantID,
		Nome:         u.Nome,
		Email:        u.Email,
		Papel:        u.Papel,
		Ativo:        u.Ativo,
		CriadoEm:     u.CriadoEm,
		AtualizadoEm: u.AtualizadoEm,
	}
}
