package entity

import "time"

// Direction tipo de movimiento del libro.
type Direction string

// Direcciones de movimiento.
const (
	DirectionIN    Direction = "IN"  // entrada
	DirectionOUT   Direction = "OUT" // salida
	DirectionUnset Direction = ""
)

// IsOutbound indica si el movimiento es una salida.
func (d Direction) IsOutbound() bool { return d == DirectionOUT }

// Form forma física de empaque.
type Form string

// Formas de empaque.
const (
	FormBox    Form = "box"
	FormBundle Form = "bundle"
	FormLoose  Form = "loose"
)

// DryState estado de secado de la leña.
type DryState string

// Estados de secado.
const (
	DryStateDry     DryState = "dry"
	DryStateNotDry  DryState = "not_dry"
	DryStateUnknown DryState = "unknown"
)

// NormalizeDryState convierte cualquier valor no reconocido en unknown.
func NormalizeDryState(v string) DryState {
	switch DryState(v) {
	case DryStateDry:
		return DryStateDry
	case DryStateNotDry:
		return DryStateNotDry
	default:
		return DryStateUnknown
	}
}

// UnsetLabel etiqueta para especie, forma o destino vacíos en los reportes.
const UnsetLabel = "(unset)"

// QueryFilter filtro lógico que cada almacén traduce a su propio lenguaje de consulta.
type QueryFilter struct {
	Direction Direction
	DateFrom  *time.Time
	DateTo    *time.Time
}

// IsEmpty indica si el filtro no restringe nada.
func (f QueryFilter) IsEmpty() bool {
	return f.Direction == DirectionUnset && f.DateFrom == nil && f.DateTo == nil
}

// SortOrder orden explícito de la consulta.
type SortOrder struct {
	Field FieldCode
	Desc  bool
}

// IsZero indica que no hay orden explícito.
func (s SortOrder) IsZero() bool { return s.Field == "" }
