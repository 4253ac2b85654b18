package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/storage"
	"github.com/urbanbyte/gestao-clientes/internal/util"
)

type clienteRepository interface {
	GetCliente(ctx context.Context, id uuid.UUID, tenantID string) (repo.Cliente, error)
	InsertCliente(ctx context.Context, arg repo.InsertClienteParams) (repo.Cliente, error)
	UpdateCliente(ctx context.Context, id uuid.UUID, tenantID string, arg repo.UpdateClienteParams) (repo.Cliente, error)
	DeactivateCliente(ctx context.Context, id uuid.UUID, tenantID string) error
	ListClientes(ctx context.Context, filtro repo.FiltroClientes) ([]repo.Cliente, int64, error)
}

// UploadPolicy define os limites aceitos para a imagem do cliente.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Arquivo carrega o conteúdo de um upload multipart já lido do formulário.
type Arquivo struct {
	Nome        string
	ContentType string
	Conteudo    []byte
}

// ClienteService opera o CRUD de clientes, sempre restrito ao tenant da
// sessão. A imagem é opcional e validada antes de qualquer persistência.
type ClienteService struct {
	repo     clienteRepository
	uploader storage.Uploader
	policy   UploadPolicy
}

// NewClienteService cria novo serviço.
func NewClienteService(r clienteRepository, uploader storage.Uploader, policy UploadPolicy) *ClienteService {
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &ClienteService{repo: r, uploader: uploader, policy: policy}
}

// ClienteDTO é a representação pública de um cliente.
type ClienteDTO struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenantId"`
	PublicID     int64         `json:"publicId"`
	Nome         string        `json:"name"`
	Email        string        `json:"email"`
	Ativo        bool          `json:"isActive"`
	Contato      string        `json:"contact"`
	Endereco     repo.Endereco `json:"address"`
	ImagemURL    *string       `json:"imageUrl"`
	CriadoEm     time.Time     `json:"createdAt"`
	AtualizadoEm time.Time     `json:"updatedAt"`
}

// ClientesPage é o envelope paginado da listagem.
type ClientesPage struct {
	Data []ClienteDTO `json:"data"`
	Meta Meta         `json:"meta"`
}

// ClienteInput agrupa os campos de formulário de criação e edição.
type ClienteInput struct {
	Nome     string
	Email    string
	Ativo    bool
	Contato  string
	Endereco repo.Endereco
}

// FiltroClientes parametriza a listagem.
type FiltroClientes struct {
	Nome  string
	Email string
	Page  int
	Limit int
}

// Criar valida o formulário e a imagem (se houver), envia o arquivo ao
// storage e insere o cliente no tenant do chamador.
func (s *ClienteService) Criar(ctx context.Context, tenantID string, input ClienteInput, imagem *Arquivo) (*ClienteDTO, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, validacao(err)
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, validacao(err)
	}

	imagemURL, err := s.uploadImagem(ctx, imagem)
	if err != nil {
		return nil, err
	}

	cliente, err := s.repo.InsertCliente(ctx, repo.InsertClienteParams{
		TenantID:  tenantID,
		Nome:      strings.TrimSpace(input.Nome),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Ativo:     input.Ativo,
		Contato:   strings.TrimSpace(input.Contato),
		Endereco:  input.Endereco,
		ImagemURL: imagemURL,
	})
	if err != nil {
		return nil, err
	}

	dto := toClienteDTO(cliente)
	return &dto, nil
}

// Listar devolve a página de clientes do tenant com filtros opcionais.
func (s *ClienteService) Listar(ctx context.Context, tenantID string, filtro FiltroClientes) (*ClientesPage, error) {
	page, limit := normalizePage(filtro.Page, filtro.Limit)

	clientes, total, err := s.repo.ListClientes(ctx, repo.FiltroClientes{
		TenantID: tenantID,
		Nome:     strings.TrimSpace(filtro.Nome),
		Email:    strings.TrimSpace(filtro.Email),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	data := make([]ClienteDTO, 0, len(clientes))
	for _, c := range clientes {
		data = append(data, toClienteDTO(c))
	}

	return &ClientesPage{Data: data, Meta: buildMeta(total, page, limit)}, nil
}

// Buscar devolve um cliente do tenant por id. Registro de outro tenant se
// comporta como inexistente.
func (s *ClienteService) Buscar(ctx context.Context, tenantID string, id uuid.UUID) (*ClienteDTO, error) {
	cliente, err := s.repo.GetCliente(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	dto := toClienteDTO(cliente)
	return &dto, nil
}

// Atualizar edita o cliente; imagem nova substitui a anterior, ausência
// preserva a atual.
func (s *ClienteService) Atualizar(ctx context.Context, tenantID string, id uuid.UUID, input ClienteInput, imagem *Arquivo) (*ClienteDTO, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, validacao(err)
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, validacao(err)
	}

	if _, err := s.repo.GetCliente(ctx, id, tenantID); err != nil {
		return nil, err
	}

	imagemURL, err := s.uploadImagem(ctx, imagem)
	if err != nil {
		return nil, err
	}

	cliente, err := s.repo.UpdateCliente(ctx, id, tenantID, repo.UpdateClienteParams{
		Nome:      strings.TrimSpace(input.Nome),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Ativo:     input.Ativo,
		Contato:   strings.TrimSpace(input.Contato),
		Endereco:  input.Endereco,
		ImagemURL: imagemURL,
	})
	if err != nil {
		return nil, err
	}

	dto := toClienteDTO(cliente)
	return &dto, nil
}

// Remover marca o cliente como inativo; o registro permanece no banco.
func (s *ClienteService) Remover(ctx context.Context, tenantID string, id uuid.UUID) error {
	return s.repo.DeactivateCliente(ctx, id, tenantID)
}

// uploadImagem valida tipo e tamanho antes de qualquer efeito colateral e
// devolve o caminho público do arquivo gravado. Sem imagem devolve nil.
func (s *ClienteService) uploadImagem(ctx context.Context, imagem *Arquivo) (*string, error) {
	if imagem == nil {
		return nil, nil
	}

	if s.policy.MaxBytes > 0 && int64(len(imagem.Conteudo)) > s.policy.MaxBytes {
		return nil, validacaoMsg(fmt.Sprintf("imagem excede o limite de %d bytes", s.policy.MaxBytes))
	}

	contentType := strings.ToLower(strings.TrimSpace(imagem.ContentType))
	if len(s.policy.AllowedTypes) > 0 {
		allowed := false
		for _, t := range s.policy.AllowedTypes {
			if contentType == t {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, validacaoMsg("tipo de imagem não permitido: " + contentType)
		}
	}

	ext := strings.ToLower(path.Ext(imagem.Nome))
	key := fmt.Sprintf("clientes/%s%s", uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        imagem.Conteudo,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	return &result.URL, nil
}

func toClienteDTO(c repo.Cliente) ClienteDTO {
	return ClienteDTO{
		ID:           c.ID.String(),
		TenantID:     c.TenantID,
		PublicID:     c.PublicID,
		Nome:         c.Nome,
		Email:        c.Email,
		Ativo:        c.Ativo,
		Contato:      c.Contato,
		Endereco:     c.Endereco,
		ImagemURL:    c.ImagemURL,
		CriadoEm:     c.CriadoEm,
		AtualizadoEm: c.AtualizadoEm,
	}
}
