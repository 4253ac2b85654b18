package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra o acesso ao Postgres.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o repositório sobre o pool informado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Pool expõe o pool subjacente (útil para health checks).
func (q *Queries) Pool() *pgxpool.Pool {
	return q.pool
}
