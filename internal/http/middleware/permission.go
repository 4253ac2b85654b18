package middleware

import (
	"errors"
	"net/http"

	"github.com/urbanbyte/gestao-clientes/internal/rbac"
)

// RequirePermission aplica a tabela de permissões para um recurso e ação.
// Este é o ponto de decisão autoritativo; qualquer gate no cliente é apenas
// cosmético e precisa passar por aqui de novo.
func RequirePermission(recurso rbac.Recurso, acao rbac.Acao) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := rbac.Check(GetPapel(r.Context()), recurso, acao)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if errors.Is(err, rbac.ErrNaoAutenticado) {
				writeError(w, http.StatusUnauthorized, "AUTH", err.Error())
				return
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
		})
	}
}
