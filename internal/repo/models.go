package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa um operador do painel administrativo.
type Usuario struct {
	ID               uuid.UUID
	TenantID         string
	Nome             string
	Email            string
	SenhaHash        string
	Papel            string
	RefreshTokenHash *string
	Ativo            bool
	CriadoEm         time.Time
	AtualizadoEm     time.Time
}

// Endereco é o bloco de endereço embutido no cliente (persistido como jsonb).
type Endereco struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	Number       string `json:"number"`
	State        string `json:"state"`
	City         string `json:"city"`
	Complement   string `json:"complement"`
}

// Cliente representa um contato pertencente a um tenant.
type Cliente struct {
	ID           uuid.UUID
	TenantID     string
	PublicID     int64
	Nome         string
	Email        string
	Ativo        bool
	Contato      string
	Endereco     Endereco
	ImagemURL    *string
	CriadoEm     time.Time
	AtualizadoEm time.Time
}
