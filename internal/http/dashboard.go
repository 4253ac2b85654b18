package http

import (
	"net/http"

	httpmiddleware "github.com/urbanbyte/gestao-clientes/internal/http/middleware"
)

// DashboardKPIs devolve os indicadores agregados do tenant da sessão.
func (h *Handler) DashboardKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.dashboard.Calcular(r.Context(), httpmiddleware.GetTenant(r.Context()))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, kpis)
}
