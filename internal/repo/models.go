package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis reconhecidos pela aplicação.
const (
	PapelAdmin       = "admin"
	PapelLider       = "lider"
	PapelEvangelista = "evangelista"
	PapelIntercessor = "intercessor"
)

// Usuario representa um membro autenticável da equipe.
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	SenhaHash string
	Papel     string
	Ativo     bool
	CriadoEm  time.Time
}

// TokenRefresh modela a tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	UsuarioID uuid.UUID
	TokenHash string
	Expiracao time.Time
	Revogado  bool
	CriadoEm  time.Time
}

// PapelValido informa se o papel está entre os reconhecidos.
func PapelValido(papel string) bool {
	switch papel {
	case PapelAdmin, PapelLider, PapelEvangelista, PapelIntercessor:
		return true
	}
	return false
}
