package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/urbanbyte/gestao-clientes/internal/http/middleware"
	"github.com/urbanbyte/gestao-clientes/internal/service"
)

// ListUsuarios lista usuários do tenant com filtros e paginação.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtro := service.FiltroUsuarios{
		Nome:  q.Get("name"),
		Email: q.Get("email"),
		Papel: q.Get("role"),
		Page:  queryInt(q.Get("page")),
		Limit: queryInt(q.Get("limit")),
	}

	page, err := h.usuarios.Listar(r.Context(), httpmiddleware.GetTenant(r.Context()), filtro)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// CreateUsuario cria usuário dentro do tenant da sessão.
func (h *Handler) CreateUsuario(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"name"`
		Email string `json:"email"`
		Senha string `json:"password"`
		Papel string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	dto, err := h.usuarios.Criar(r.Context(), httpmiddleware.GetTenant(r.Context()), service.CriarUsuarioInput{
		Nome:  payload.Nome,
		Email: payload.Email,
		Senha: payload.Senha,
		Papel: payload.Papel,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, dto)
}

// GetUsuario busca usuário por id dentro do tenant.
func (h *Handler) GetUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	dto, err := h.usuarios.Buscar(r.Context(), httpmiddleware.GetTenant(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dto)
}

// UpdateUsuario edita nome, e-mail e opcionalmente a senha.
func (h *Handler) UpdateUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Nome  string `json:"name"`
		Email string `json:"email"`
		Senha string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	dto, err := h.usuarios.Atualizar(r.Context(), httpmiddleware.GetTenant(r.Context()), id, service.AtualizarUsuarioInput{
		Nome:  payload.Nome,
		Email: payload.Email,
		Senha: payload.Senha,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, dto)
}

// DeleteUsuario desativa o usuário. O registro permanece para auditoria.
func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.usuarios.Remover(r.Context(), httpmiddleware.GetTenant(r.Context()), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "usuário removido"})
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
