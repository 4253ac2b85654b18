// Comando seed insere os usuários de demonstração (um por papel) no tenant "1".
// Idempotente: e-mails já cadastrados são ignorados.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/gestao-clientes/internal/auth"
	"github.com/urbanbyte/gestao-clientes/internal/config"
	"github.com/urbanbyte/gestao-clientes/internal/db"
	"github.com/urbanbyte/gestao-clientes/internal/rbac"
)

const (
	seedTenant = "1"
	seedSenha  = "121212"
)

type seedUser struct {
	nome  string
	email string
	papel string
}

var seedUsers = []seedUser{
	{nome: "Admin", email: "admin@mail.com", papel: rbac.PapelAdmin},
	{nome: "User", email: "user@mail.com", papel: rbac.PapelUser},
	{nome: "Guest", email: "guest@mail.com", papel: rbac.PapelGuest},
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("seed falhou")
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

	hash, err := auth.Hash(seedSenha)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	const insert = `
		INSERT INTO usuarios (id, tenant_id, nome, email, senha_hash, papel, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (lower(email)) DO NOTHING`

	for _, u := range seedUsers {
		tag, err := pool.Exec(ctx, insert, uuid.New(), seedTenant, u.nome, u.email, hash, u.papel)
		if err != nil {
			return fmt.Errorf("insert %s: %w", u.email, err)
		}
		if tag.RowsAffected() == 0 {
			log.Info().Str("email", u.email).Msg("já existia, pulando")
			continue
		}
		log.Info().Str("email", u.email).Str("papel", u.papel).Msg("usuário criado")
	}

	return nil
}
