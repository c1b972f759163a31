package repository

import (
	"context"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
)

// QueryRequest consulta paginada sobre un contenedor de registros.
// Limit <= 0 deja el límite al almacén; Order vacío no envía orden explícito.
type QueryRequest struct {
	Container string
	Filter    entity.QueryFilter
	Order     entity.SortOrder
	Limit     int
	Offset    int
	Fields    []string // proyección; vacío = todos los campos
}

// CursorRequest apertura de cursor del lado del servidor.
type CursorRequest struct {
	Container string
	Filter    entity.QueryFilter
	Order     entity.SortOrder
	Fields    []string
	Size      int
}

// CursorPage página leída de un cursor; Next indica si quedan páginas.
type CursorPage struct {
	Records []entity.Record
	Next    bool
}

// RecordStore define el puerto hacia el almacén remoto paginado de registros.
type RecordStore interface {
	Query(ctx context.Context, req QueryRequest) ([]entity.Record, error)
	CreateCursor(ctx context.Context, req CursorRequest) (string, error)
	FetchCursor(ctx context.Context, cursorID string) (CursorPage, error)
	DeleteCursor(ctx context.Context, cursorID string) error
}
