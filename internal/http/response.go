package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/urbanbyte/gestao-clientes/internal/rbac"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/service"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteServiceError traduz erros da camada de serviço para o envelope HTTP.
// Erros não mapeados viram 500 sem vazar detalhe interno.
func WriteServiceError(w http.ResponseWriter, err error) {
	var permErr *rbac.PermissionError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrContaDesativada),
		errors.Is(err, service.ErrRefreshInvalid),
		errors.Is(err, rbac.ErrNaoAutenticado):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.As(err, &permErr):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, service.ErrValidacao):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "recurso não encontrado", nil)
	case errors.Is(err, repo.ErrEmailEmUso):
		WriteError(w, http.StatusConflict, "CONFLICT", "e-mail já cadastrado", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
