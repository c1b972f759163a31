package dto

import "github.com/jhoicas/woodstock-api/internal/domain/entity"

// Tipos de evento que entrega el runtime de formularios.
const (
	EventRecordShown  = "record.shown"
	EventFieldChanged = "field.changed"
	EventRecordSubmit = "record.submit"
	EventViewShown    = "view.shown"
)

// RecordEvent body de POST /api/ledger/events. La respuesta es el mismo evento, posiblemente mutado.
// Error no vacío en un submit bloquea el guardado y se muestra tal cual al usuario.
type RecordEvent struct {
	Type     string        `json:"type"`
	Field    string        `json:"field,omitempty"`     // field.changed
	ViewName string        `json:"view_name,omitempty"` // view.shown
	Record   entity.Record `json:"record,omitempty"`
	Error    string        `json:"error,omitempty"`
	RecordID string        `json:"record_id,omitempty"` // id asignado al persistir
	Report   any           `json:"report,omitempty"`    // view.shown con vista de reporte
}
