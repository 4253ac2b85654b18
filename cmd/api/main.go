package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/gestao-clientes/internal/auth"
	"github.com/urbanbyte/gestao-clientes/internal/config"
	"github.com/urbanbyte/gestao-clientes/internal/db"
	internalhttp "github.com/urbanbyte/gestao-clientes/internal/http"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/service"
	"github.com/urbanbyte/gestao-clientes/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	uploader, err := buildUploader(cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	svcs := internalhttp.Services{
		Auth:     service.NewAuthService(repository, redisClient, jwtManager),
		Usuarios: service.NewUsuarioService(repository),
		Clientes: service.NewClienteService(repository, uploader, service.UploadPolicy{
			MaxBytes:     cfg.Upload.MaxBytes,
			AllowedTypes: cfg.Upload.AllowedTypes,
		}),
		Dashboard: service.NewDashboardService(repository),
	}

	handler, err := internalhttp.NewRouter(cfg, pool, redisClient, svcs, uploader)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildUploader(cfg *config.Config) (storage.Uploader, error) {
	switch cfg.Storage.Provider {
	case "local":
		return storage.NewLocalUploader(cfg.Storage.LocalDir)
	case "s3":
		return storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		})
	case "noop":
		return storage.NoopUploader{}, nil
	default:
		return nil, fmt.Errorf("provedor %q não suportado", cfg.Storage.Provider)
	}
}
