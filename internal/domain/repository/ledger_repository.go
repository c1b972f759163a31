package repository

import (
	"context"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia para registros del libro ya validados.
type LedgerRepository interface {
	// Create persiste el registro y devuelve su id.
	Create(ctx context.Context, rec entity.Record, createdBy string) (string, error)
}
