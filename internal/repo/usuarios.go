package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/urbanbyte/gestao-clientes/internal/db"
)

const usuarioColumns = `id, tenant_id, nome, email, senha_hash, papel, refresh_token_hash, ativo, criado_em, atualizado_em`

// InsertUsuarioParams agrupa os campos de criação de usuário.
type InsertUsuarioParams struct {
	TenantID  string
	Nome      string
	Email     string
	SenhaHash string
	Papel     string
}

// UpdateUsuarioParams agrupa os campos mutáveis de usuário.
type UpdateUsuarioParams struct {
	Nome      string
	Email     string
	SenhaHash *string
}

// FiltroUsuarios parametriza listagem paginada de usuários.
type FiltroUsuarios struct {
	TenantID string
	Nome     string
	Email    string
	Papel    string
	Limit    int
	Offset   int
}

// GetUsuarioByEmail busca usuário pelo e-mail (único globalmente).
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios WHERE lower(email) = lower($1)`, usuarioColumns)
	return scanUsuario(q.pool.QueryRow(ctx, query, email))
}

// GetUsuarioByID busca usuário pelo identificador, sem filtro de tenant.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios WHERE id = $1`, usuarioColumns)
	return scanUsuario(q.pool.QueryRow(ctx, query, id))
}

// GetUsuarioScoped busca usuário por id restrito ao tenant da sessão.
// Registro de outro tenant se comporta como inexistente.
func (q *Queries) GetUsuarioScoped(ctx context.Context, id uuid.UUID, tenantID string) (Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios WHERE id = $1 AND tenant_id = $2`, usuarioColumns)
	return scanUsuario(q.pool.QueryRow(ctx, query, id, tenantID))
}

// InsertUsuario insere usuário novo. Violação de unicidade de e-mail vira
// ErrEmailEmUso para fechar a corrida entre pré-checagem e insert.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	query := fmt.Sprintf(`
        INSERT INTO usuarios (id, tenant_id, nome, email, senha_hash, papel)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, usuarioColumns)

	row := q.pool.QueryRow(ctx, query, uuid.New(), arg.TenantID, arg.Nome, arg.Email, arg.SenhaHash, arg.Papel)
	usuario, err := scanUsuario(row)
	if err != nil {
		return Usuario{}, mapUniqueEmail(err)
	}
	return usuario, nil
}

// UpdateUsuario atualiza nome, e-mail e opcionalmente a senha.
func (q *Queries) UpdateUsuario(ctx context.Context, id uuid.UUID, tenantID string, arg UpdateUsuarioParams) (Usuario, error) {
	query := fmt.Sprintf(`
        UPDATE usuarios
        SET nome = $3, email = $4, senha_hash = COALESCE($5, senha_hash), atualizado_em = now()
        WHERE id = $1 AND tenant_id = $2
        RETURNING %s
    `, usuarioColumns)

	row := q.pool.QueryRow(ctx, query, id, tenantID, arg.Nome, arg.Email, arg.SenhaHash)
	usuario, err := scanUsuario(row)
	if err != nil {
		return Usuario{}, mapUniqueEmail(err)
	}
	return usuario, nil
}

// DeactivateUsuario marca o usuário como inativo (remoção lógica).
func (q *Queries) DeactivateUsuario(ctx context.Context, id uuid.UUID, tenantID string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios SET ativo = false, atualizado_em = now()
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

// ListUsuarios devolve página de usuários do tenant com filtros opcionais
// e o total para montagem de meta de paginação.
func (q *Queries) ListUsuarios(ctx context.Context, filtro FiltroUsuarios) ([]Usuario, int64, error) {
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
	if filtro.Papel != "" {
		args = append(args, strings.ToUpper(filtro.Papel))
		where = append(where, fmt.Sprintf("papel = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM usuarios WHERE %s`, whereClause)
	if err := q.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filtro.Limit, filtro.Offset)
	listQuery := fmt.Sprintf(`
        SELECT %s FROM usuarios
        WHERE %s
        ORDER BY criado_em DESC
        LIMIT $%d OFFSET $%d
    `, usuarioColumns, whereClause, len(args)-1, len(args))

	rows, err := q.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		usuario, err := scanUsuario(rows)
		if err != nil {
			return nil, 0, err
		}
		usuarios = append(usuarios, usuario)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return usuarios, total, nil
}

// SetRefreshToken grava (ou limpa, com nil) o hash corrente de refresh.
func (q *Queries) SetRefreshToken(ctx context.Context, userID uuid.UUID, hash *string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios SET refresh_token_hash = $2, atualizado_em = now()
        WHERE id = $1
    `, userID, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken troca o hash corrente pelo novo somente se o apresentado
// ainda for o registrado. O SELECT ... FOR UPDATE serializa rotações
// concorrentes do mesmo usuário: duas chamadas com o mesmo token antigo não
// podem ambas vencer.
func (q *Queries) RotateRefreshToken(ctx context.Context, userID uuid.UUID, presentedHash, newHash string) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		var stored *string
		err := tx.QueryRow(ctx, `
            SELECT refresh_token_hash FROM usuarios WHERE id = $1 FOR UPDATE
        `, userID).Scan(&stored)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if stored == nil || *stored != presentedHash {
			return ErrRefreshStale
		}

		_, err = tx.Exec(ctx, `
            UPDATE usuarios SET refresh_token_hash = $2, atualizado_em = now()
            WHERE id = $1
        `, userID, newHash)
		return err
	})
}

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.TenantID, &u.Nome, &u.Email, &u.SenhaHash, &u.Papel,
		&u.RefreshTokenHash, &u.Ativo, &u.CriadoEm, &u.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

func mapUniqueEmail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailEmUso
	}
	return err
}
