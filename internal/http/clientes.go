package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	httpmiddleware "github.com/urbanbyte/gestao-clientes/internal/http/middleware"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/service"
)

const clienteImageField = "imageUrl"

// ListClientes lista clientes do tenant com filtros e paginação.
func (h *Handler) ListClientes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtro := service.FiltroClientes{
		Nome:  q.Get("name"),
		Email: q.Get("email"),
		Page:  queryInt(q.Get("page")),
		Limit: queryInt(q.Get("limit")),
	}

	page, err := h.clientes.Listar(r.Context(), httpmiddleware.GetTenant(r.Context()), filtro)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// CreateCliente cria cliente a partir de formulário multipart com imagem
// opcional. O tenant é sempre o da sessão, nunca o do payload.
func (h *Handler) CreateCliente(w http.ResponseWriter, r *http.Request) {
	input, imagem, err := h.parseClienteForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	dto, err := h.clientes.Criar(r.Context(), httpmiddleware.GetTenant(r.Context()), input, imagem)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, dto)
}

// GetCliente busca cliente por id dentro do tenant.
func (h *Handler) GetCliente(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	dto, err := h.clientes.Buscar(r.Context(), httpmiddleware.GetTenant(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dto)
}

// UpdateCliente edita o cliente; nova imagem substitui a anterior quando
// enviada, e a atual é mantida quando o campo vem vazio.
func (h *Handler) UpdateCliente(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	input, imagem, err := h.parseClienteForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	dto, err := h.clientes.Atualizar(r.Context(), httpmiddleware.GetTenant(r.Context()), id, input, imagem)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dto)
}

// DeleteCliente arquiva o cliente (soft delete).
func (h *Handler) DeleteCliente(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.clientes.Remover(r.Context(), httpmiddleware.GetTenant(r.Context()), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "cliente removido"})
}

// parseClienteForm lê o multipart de criação/edição. O corpo inteiro fica
// limitado ao teto de upload mais uma folga para os campos de texto.
func (h *Handler) parseClienteForm(r *http.Request) (service.ClienteInput, *service.Arquivo, error) {
	var input service.ClienteInput

	maxBytes := h.cfg.Upload.MaxBytes
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+512*1024)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return input, nil, errors.New("formulário multipart inválido ou grande demais")
	}

	input.Nome = strings.TrimSpace(r.FormValue("name"))
	input.Email = strings.TrimSpace(r.FormValue("email"))
	input.Contato = strings.TrimSpace(r.FormValue("contact"))
	input.Ativo = parseFormBool(r.FormValue("isActive"), true)

	if rawAddr := r.FormValue("address"); rawAddr != "" {
		var endereco repo.Endereco
		if err := json.Unmarshal([]byte(rawAddr), &endereco); err != nil {
			return input, nil, errors.New("campo address não é um JSON válido")
		}
		input.Endereco = endereco
	}

	imagem, err := readFormFile(r, clienteImageField)
	if err != nil {
		return input, nil, err
	}

	return input, imagem, nil
}

// readFormFile devolve nil quando o campo de arquivo está ausente.
func readFormFile(r *http.Request, field string) (*service.Arquivo, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("arquivo de imagem inválido")
	}
	defer file.Close()

	conteudo, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("não foi possível ler o arquivo enviado")
	}

	return &service.Arquivo{
		Nome:        header.Filename,
		ContentType: fileContentType(header, conteudo),
		Conteudo:    conteudo,
	}, nil
}

func fileContentType(header *multipart.FileHeader, conteudo []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(conteudo)
}

func parseFormBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "on":
		return true
	case "false", "0", "off":
		return false
	default:
		return def
	}
}
