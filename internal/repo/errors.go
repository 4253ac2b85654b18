package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado
	// (inclui tentativas de acesso a registros de outro tenant).
	ErrNotFound = errors.New("registro não encontrado")
	// ErrEmailEmUso indica violação da unicidade global de e-mail.
	ErrEmailEmUso = errors.New("email já está em uso")
	// ErrRefreshStale indica que o refresh apresentado não é o corrente.
	ErrRefreshStale = errors.New("refresh token não corresponde ao registrado")
)
