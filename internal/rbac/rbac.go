// Package rbac avalia permissões por papel sobre os recursos da aplicação.
//
// A tabela é estática e consultada diretamente; o servidor a aplica de forma
// autoritativa nos guards HTTP e a exporta para que clientes derivem a mesma
// visibilidade de interface sem reencodar as regras.
package rbac

import (
	"fmt"
	"strings"
)

// Recurso identifica uma família de recursos protegida.
type Recurso string

const (
	RecursoUsuarios Recurso = "usuarios"
	RecursoClientes Recurso = "clientes"
)

// Acao identifica a operação solicitada sobre um recurso.
type Acao string

const (
	AcaoCriar     Acao = "CREATE"
	AcaoLer       Acao = "READ"
	AcaoAtualizar Acao = "UPDATE"
	AcaoExcluir   Acao = "DELETE"
)

// Papéis reconhecidos. Qualquer outro valor nega tudo.
const (
	PapelAdmin = "ADMIN"
	PapelUser  = "USER"
	PapelGuest = "GUEST"
)

// ErrNaoAutenticado indica requisição sem identidade alguma (401, não 403).
var ErrNaoAutenticado = &PermissionError{Motivo: "usuário não autenticado"}

// PermissionError descreve uma negação com motivo legível.
type PermissionError struct {
	Motivo string
}

func (e *PermissionError) Error() string { return e.Motivo }

// matriz fixa papel × recurso × ação.
//
// usuarios: ADMIN tudo; USER e GUEST apenas leitura.
// clientes: ADMIN e USER tudo; GUEST apenas leitura.
var matriz = map[Recurso]map[string]map[Acao]bool{
	RecursoUsuarios: {
		PapelAdmin: {AcaoCriar: true, AcaoLer: true, AcaoAtualizar: true, AcaoExcluir: true},
		PapelUser:  {AcaoCriar: false, AcaoLer: true, AcaoAtualizar: false, AcaoExcluir: false},
		PapelGuest: {AcaoCriar: false, AcaoLer: true, AcaoAtualizar: false, AcaoExcluir: false},
	},
	RecursoClientes: {
		PapelAdmin: {AcaoCriar: true, AcaoLer: true, AcaoAtualizar: true, AcaoExcluir: true},
		PapelUser:  {AcaoCriar: true, AcaoLer: true, AcaoAtualizar: true, AcaoExcluir: true},
		PapelGuest: {AcaoCriar: false, AcaoLer: true, AcaoAtualizar: false, AcaoExcluir: false},
	},
}

// Check decide se papel pode executar acao sobre recurso.
// Papel vazio falha com ErrNaoAutenticado; negações retornam *PermissionError
// com motivo nomeando papel e ação.
func Check(papel string, recurso Recurso, acao Acao) error {
	papel = strings.ToUpper(strings.TrimSpace(papel))
	if papel == "" {
		return ErrNaoAutenticado
	}

	recursoPerms, ok := matriz[recurso]
	if !ok {
		return &PermissionError{Motivo: fmt.Sprintf("recurso %s desconhecido", recurso)}
	}

	perms, ok := recursoPerms[papel]
	if !ok {
		return &PermissionError{Motivo: fmt.Sprintf("papel %s sem permissões", papel)}
	}

	if !perms[acao] {
		return &PermissionError{Motivo: fmt.Sprintf("papel %s não pode executar %s em %s", papel, acao, recurso)}
	}

	return nil
}

// Allowed é a forma booleana de Check, para visibilidade de UI.
func Allowed(papel string, recurso Recurso, acao Acao) bool {
	return Check(papel, recurso, acao) == nil
}

// Permissions devolve o recorte da matriz para um papel, no formato consumido
// por clientes. Papéis desconhecidos recebem o recorte de GUEST.
func Permissions(papel string) map[Recurso]map[Acao]bool {
	papel = strings.ToUpper(strings.TrimSpace(papel))
	if _, ok := matriz[RecursoUsuarios][papel]; !ok {
		papel = PapelGuest
	}

	out := make(map[Recurso]map[Acao]bool, len(matriz))
	for recurso, byPapel := range matriz {
		perms := byPapel[papel]
		copied := make(map[Acao]bool, len(perms))
		for acao, allowed := range perms {
			copied[acao] = allowed
		}
		out[recurso] = copied
	}
	return out
}

// PapelValido informa se o valor é um dos papéis reconhecidos.
func PapelValido(papel string) bool {
	switch strings.ToUpper(strings.TrimSpace(papel)) {
	case PapelAdmin, PapelUser, PapelGuest:
		return true
	}
	return false
}
