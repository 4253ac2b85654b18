// Package http monta a superfície REST da aplicação sob /api/v1.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/gestao-clientes/internal/config"
	httpmiddleware "github.com/urbanbyte/gestao-clientes/internal/http/middleware"
	"github.com/urbanbyte/gestao-clientes/internal/rbac"
	"github.com/urbanbyte/gestao-clientes/internal/service"
	"github.com/urbanbyte/gestao-clientes/internal/storage"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	usuarios      *service.UsuarioService
	clientes      *service.ClienteService
	dashboard     *service.DashboardService
	staticDir     string
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// Services agrupa as dependências de domínio do roteador.
type Services struct {
	Auth      *service.AuthService
	Usuarios  *service.UsuarioService
	Clientes  *service.ClienteService
	Dashboard *service.DashboardService
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, svcs Services, uploader storage.Uploader) (http.Handler, error) {
	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   svcs.Auth,
		usuarios:      svcs.Usuarios,
		clientes:      svcs.Clientes,
		dashboard:     svcs.Dashboard,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	if local, ok := uploader.(*storage.LocalUploader); ok {
		h.staticDir = local.Dir()
	}

	metricsHandler, err := httpmiddleware.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Warn().Err(err).Msg("métricas desabilitadas")
		metricsHandler = nil
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Metrics)

	r.Get("/healthz", h.Health)
	r.Get("/ready", h.Ready)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	if h.staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

			public.Post("/auth/login", h.Login)
			public.Patch("/auth/refresh", h.Refresh)
		})

		api.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Auth(h.authService.JWT()))
			private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

			private.Get("/auth/profile", h.Profile)
			private.Post("/auth/logout", h.Logout)
			private.Get("/auth/permissions", h.Permissions)

			private.Route("/users", func(u chi.Router) {
				u.With(httpmiddleware.RequirePermission(rbac.RecursoUsuarios, rbac.AcaoLer)).Get("/", h.ListUsuarios)
				u.With(httpmiddleware.RequirePermission(rbac.RecursoUsuarios, rbac.AcaoCriar)).Post("/", h.CreateUsuario)
				u.With(httpmiddleware.RequirePermission(rbac.RecursoUsuarios, rbac.AcaoLer)).Get("/{id}", h.GetUsuario)
				u.With(httpmiddleware.RequirePermission(rbac.RecursoUsuarios, rbac.AcaoAtualizar)).Put("/{id}", h.UpdateUsuario)
				u.With(httpmiddleware.RequirePermission(rbac.RecursoUsuarios, rbac.AcaoExcluir)).Delete("/{id}", h.DeleteUsuario)
			})

			private.Route("/clientes", func(c chi.Router) {
				c.With(httpmiddleware.RequirePermission(rbac.RecursoClientes, rbac.AcaoLer)).Get("/", h.ListClientes)
				c.With(httpmiddleware.RequirePermission(rbac.RecursoClientes, rbac.AcaoCriar)).Post("/", h.CreateCliente)
				c.With(httpmiddleware.RequirePermission(rbac.RecursoClientes, rbac.AcaoLer)).Get("/{id}", h.GetCliente)
				c.With(httpmiddleware.RequirePermission(rbac.RecursoClientes, rbac.AcaoAtualizar)).Put("/{id}", h.UpdateCliente)
				c.With(httpmiddleware.RequirePermission(rbac.RecursoClientes, rbac.AcaoExcluir)).Delete("/{id}", h.DeleteCliente)
			})

			private.Get("/dashboard/kpis", h.DashboardKPIs)
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, redisErr error
	if h.pool != nil {
		dbErr = h.pool.Ping(ctx)
	}
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
