package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	httpmiddleware "github.com/urbanbyte/gestao-clientes/internal/http/middleware"
	"github.com/urbanbyte/gestao-clientes/internal/rbac"
)

// Login autentica por e-mail e senha e devolve o par de tokens.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	pair, err := h.authService.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// Refresh rotaciona o refresh token corrente por um novo par.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.RefreshToken) == "" {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// Profile retorna a projeção pública do usuário autenticado.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	perfil, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, perfil)
}

// Logout revoga o refresh token corrente do usuário.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "sessão encerrada"})
}

// Permissions exporta o recorte da matriz de permissões do papel da sessão,
// para que a interface derive visibilidade da mesma fonte que o servidor.
func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	papel := httpmiddleware.GetPapel(r.Context())

	WriteJSON(w, http.StatusOK, map[string]any{
		"role":        papel,
		"permissions": rbac.Permissions(papel),
	})
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(httpmiddleware.GetSubject(r.Context()))
}
