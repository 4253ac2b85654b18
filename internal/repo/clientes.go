package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clienteColumns = `id, tenant_id, public_id, nome, email, ativo, contato, endereco, imagem_url, criado_em, atualizado_em`

// InsertClienteParams agrupa os campos de criação de cliente.
type InsertClienteParams struct {
	TenantID  string
	Nome      string
	Email     string
	Ativo     bool
	Contato   string
	Endereco  Endereco
	ImagemURL *string
}

// UpdateClienteParams agrupa os campos mutáveis de cliente. ImagemURL nil
// preserva a imagem atual.
type UpdateClienteParams struct {
	Nome      string
	Email     string
	Ativo     bool
	Contato   string
	Endereco  Endereco
	ImagemURL *string
}

// FiltroClientes parametriza listagem paginada de clientes de um tenant.
type FiltroClientes struct {
	TenantID string
	Nome     string
	Email    string
	Limit    int
	Offset   int
}

// GetCliente busca cliente por id dentro do tenant. Registro de outro tenant
// se comporta como inexistente.
func (q *Queries) GetCliente(ctx context.Context, id uuid.UUID, tenantID string) (Cliente, error) {
	query := fmt.Sprintf(`SELECT %s FROM clientes WHERE id = $1 AND tenant_id = $2`, clienteColumns)
	return scanCliente(q.pool.QueryRow(ctx, query, id, tenantID))
}

// InsertCliente insere cliente novo no tenant informado.
func (q *Queries) InsertCliente(ctx context.Context, arg InsertClienteParams) (Cliente, error) {
	endereco, err := json.Marshal(arg.Endereco)
	if err != nil {
		return Cliente{}, err
	}

	query := fmt.Sprintf(`
        INSERT INTO clientes (id, tenant_id, nome, email, ativo, contato, endereco, imagem_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING %s
    `, clienteColumns)

	row := q.pool.QueryRow(ctx, query, uuid.New(), arg.TenantID, arg.Nome, arg.Email,
		arg.Ativo, arg.Contato, endereco, arg.ImagemURL)
	return scanCliente(row)
}

// UpdateCliente substitui os campos mutáveis do cliente dentro do tenant.
func (q *Queries) UpdateCliente(ctx context.Context, id uuid.UUID, tenantID string, arg UpdateClienteParams) (Cliente, error) {
	endereco, err := json.Marshal(arg.Endereco)
	if err != nil {
		return Cliente{}, err
	}

	query := fmt.Sprintf(`
        UPDATE clientes
        SET nome = $3, email = $4, ativo = $5, contato = $6, endereco = $7,
            imagem_url = COALESCE($8, imagem_url), atualizado_em = now()
        WHERE id = $1 AND tenant_id = $2
        RETURNING %s
    `, clienteColumns)

	row := q.pool.QueryRow(ctx, query, id, tenantID, arg.Nome, arg.Email, arg.Ativo,
		arg.Contato, endereco, arg.ImagemURL)
	return scanCliente(row)
}

// DeactivateCliente marca o cliente como inativo (remoção lógica).
func (q *Queries) DeactivateCliente(ctx context.Context, id uuid.UUID, tenantID string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE clientes SET ativo = false, atualizado_em = now()
        WHERE id = $1 AND tenant_id = $2
    `, id, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListClientes devolve página de clientes do tenant com filtros opcionais
// e o total para meta de paginação, do mais recente para o mais antigo.
func (q *Queries) ListClientes(ctx context.Context, filtro FiltroClientes) ([]Cliente, int64, error) {
	where := []string{"tenant_id = $1"}
	args := []any{filtro.TenantID}

	if filtro.Nome != "" {
		args = append(args, "%"+filtro.Nome+"%")
		where = append(where, fmt.Sprintf("nome ILIKE $%d", len(args)))
	}
	if filtro.Email != "" {
		args = append(args, "%"+filtro.Email+"%")
		where = append(where, fmt.Sprintf("email ILIKE $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM clientes WHERE %s`, whereClause)
	if err := q.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filtro.Limit, filtro.Offset)
	listQuery := fmt.Sprintf(`
        SELECT %s FROM clientes
        WHERE %s
        ORDER BY criado_em DESC
        LIMIT $%d OFFSET $%d
    `, clienteColumns, whereClause, len(args)-1, len(args))

	rows, err := q.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clientes []Cliente
	for rows.Next() {
		cliente, err := scanCliente(rows)
		if err != nil {
			return nil, 0, err
		}
		clientes = append(clientes, cliente)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return clientes, total, nil
}

// CountClientes devolve total e total de ativos do tenant em uma passada.
func (q *Queries) CountClientes(ctx context.Context, tenantID string) (total int64, ativos int64, err error) {
	err = q.pool.QueryRow(ctx, `
        SELECT count(*), count(*) FILTER (WHERE ativo)
        FROM clientes
        WHERE tenant_id = $1
    `, tenantID).Scan(&total, &ativos)
	return total, ativos, err
}

func scanCliente(row pgx.Row) (Cliente, error) {
	var (
		c        Cliente
		endereco []byte
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.PublicID, &c.Nome, &c.Email, &c.Ativo,
		&c.Contato, &endereco, &c.ImagemURL, &c.CriadoEm, &c.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cliente{}, ErrNotFound
		}
		return Cliente{}, err
	}

	if len(endereco) > 0 {
		if err := json.Unmarshal(endereco, &c.Endereco); err != nil {
			return Cliente{}, err
		}
	}
	return c, nil
}
