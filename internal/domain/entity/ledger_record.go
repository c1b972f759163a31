package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FieldCode identifica un campo del registro del libro de existencias.
type FieldCode string

// Códigos de campo del registro (los mismos que expone el runtime de formularios).
const (
	FieldID             FieldCode = "$id"
	FieldOperation      FieldCode = "operation"       // IN / OUT
	FieldSpecies        FieldCode = "species"         // especie de madera
	FieldUnit           FieldCode = "unit"            // box / bundle / loose
	FieldQty            FieldCode = "qty"             // cantidad en unidades de la forma
	FieldKg             FieldCode = "kg"              // peso con signo
	FieldProductionDate FieldCode = "production_date" // fecha de producción (solo entradas)
	FieldDryState       FieldCode = "dry_state"       // dry / not_dry / unknown
	FieldShippingTo     FieldCode = "shipping_to"     // destino (obligatorio en salidas)
	FieldSpForm         FieldCode = "sp_form"         // etiqueta auxiliar especie_forma
	FieldDate           FieldCode = "date"            // fecha del movimiento
)

// DateLayout formato de fechas de calendario en los registros.
const DateLayout = "2006-01-02"

// Field valor de un campo más su estado de edición.
type Field struct {
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Record representa una fila del libro como mapa explícito de campos.
// Un campo ausente del esquema no está en el mapa; toda regla debe tolerarlo.
type Record map[FieldCode]*Field

// Get devuelve el campo y si está presente.
func (r Record) Get(code FieldCode) (*Field, bool) {
	f, ok := r[code]
	if !ok || f == nil {
		return nil, false
	}
	return f, true
}

// Has indica si el campo existe en el registro.
func (r Record) Has(code FieldCode) bool {
	_, ok := r.Get(code)
	return ok
}

// Value devuelve el valor del campo o "" si no existe.
func (r Record) Value(code FieldCode) string {
	if f, ok := r.Get(code); ok {
		return f.Value
	}
	return ""
}

// Set asigna el valor solo si el campo existe.
func (r Record) Set(code FieldCode, value string) {
	if f, ok := r.Get(code); ok {
		f.Value = value
	}
}

// Lock bloquea o desbloquea el campo solo si existe.
func (r Record) Lock(code FieldCode, disabled bool) {
	if f, ok := r.Get(code); ok {
		f.Disabled = disabled
	}
}

// Clone copia profunda del registro.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, f := range r {
		if f == nil {
			continue
		}
		cp := *f
		out[k] = &cp
	}
	return out
}

// Direction devuelve la dirección del movimiento.
func (r Record) Direction() Direction {
	return Direction(strings.TrimSpace(r.Value(FieldOperation)))
}

// Form devuelve la forma de empaque.
func (r Record) Form() Form {
	return Form(strings.TrimSpace(r.Value(FieldUnit)))
}

// Number devuelve el valor numérico del campo (vacío o inválido → 0).
func (r Record) Number(code FieldCode) decimal.Decimal {
	return ParseNumber(r.Value(code))
}

// ParseNumber convierte un texto a decimal; vacío o inválido se trata como cero.
func ParseNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeDate recorta fechas y fecha-hora al día de calendario (YYYY-MM-DD).
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > len(DateLayout) {
		return v[:len(DateLayout)]
	}
	return v
}
