package ledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// TriggerKind origen de una derivación.
type TriggerKind int

const (
	// TriggerRecordShown el formulario acaba de mostrarse (creación o edición).
	TriggerRecordShown TriggerKind = iota
	// TriggerFieldChanged el usuario modificó Field.
	TriggerFieldChanged
)

// Trigger evento que dispara la derivación.
type Trigger struct {
	Kind  TriggerKind
	Field entity.FieldCode
}

func (t Trigger) String() string {
	if t.Kind == TriggerRecordShown {
		return "record.shown"
	}
	return "field.changed:" + string(t.Field)
}

// DerivationEngine mantiene consistente un registro mientras se edita campo a campo.
type DerivationEngine struct {
	conv   stock.ConversionTable
	drying stock.DryingTable
	loc    *time.Location
	now    func() time.Time
	log    *logger.Logger
}

// NewDerivationEngine construye el motor con las constantes del dominio.
func NewDerivationEngine(cfg config.StockConfig, log *logger.Logger) *DerivationEngine {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &DerivationEngine{
		conv:   stock.ConversionTableOf(cfg.Coefficients),
		drying: stock.NewDryingTable(cfg.DryingDays),
		loc:    loc,
		now:    time.Now,
		log:    log.Component("derivation"),
	}
}

// WithClock reemplaza el reloj (tests).
func (e *DerivationEngine) WithClock(now func() time.Time) *DerivationEngine {
	e.now = now
	return e
}

// Apply actualiza en sitio los campos dependientes del trigger.
// Nunca falla hacia el llamador: ante cualquier error el registro queda como estaba y se registra el fallo.
func (e *DerivationEngine) Apply(rec entity.Record, trig Trigger) {
	if rec == nil {
		return
	}
	work := rec.Clone()
	if err := e.safeDerive(work, trig); err != nil {
		e.log.Error().Err(err).
			Str("trigger", trig.String()).
			Str("field", string(trig.Field)).
			Msg("derivación fallida, registro sin cambios")
		return
	}
	for code, f := range work {
		if dst, ok := rec.Get(code); ok {
			*dst = *f
		}
	}
}

func (e *DerivationEngine) safeDerive(rec entity.Record, trig Trigger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic en derivación: %v", r)
		}
	}()
	return e.derive(rec, trig)
}

func (e *DerivationEngine) derive(rec entity.Record, trig Trigger) error {
	if trig.Kind == TriggerRecordShown {
		e.applyDirection(rec)
		return nil
	}

	outbound := rec.Direction().IsOutbound()
	switch trig.Field {
	case entity.FieldOperation:
		e.applyDirection(rec)
	case entity.FieldQty, entity.FieldUnit:
		if outbound {
			e.quantityFromWeight(rec)
		} else {
			e.weightFromQuantity(rec)
		}
	case entity.FieldKg:
		if outbound {
			e.quantityFromWeight(rec)
		}
	case entity.FieldProductionDate, entity.FieldSpecies:
		if !outbound {
			return e.inferDryState(rec)
		}
	}
	return nil
}

// applyDirection bloqueos según la dirección; corre antes de cualquier recálculo.
func (e *DerivationEngine) applyDirection(rec entity.Record) {
	if rec.Direction().IsOutbound() {
		rec.Set(entity.FieldProductionDate, "")
		rec.Lock(entity.FieldProductionDate, true)
		rec.Set(entity.FieldDryState, string(entity.DryStateDry))
		rec.Lock(entity.FieldDryState, true)
		rec.Lock(entity.FieldQty, true)
		e.quantityFromWeight(rec)
		return
	}
	rec.Lock(entity.FieldProductionDate, false)
	rec.Lock(entity.FieldDryState, false)
	rec.Lock(entity.FieldQty, false)
	e.weightFromQuantity(rec)
}

// weightFromQuantity kg = qty × coeficiente; no-op sin coeficiente o sin campos.
func (e *DerivationEngine) weightFromQuantity(rec entity.Record) {
	if !rec.Has(entity.FieldQty) || !rec.Has(entity.FieldKg) {
		return
	}
	kg, err := e.conv.WeightFromQuantity(rec.Number(entity.FieldQty), rec.Form())
	if err != nil {
		return
	}
	rec.Set(entity.FieldKg, kg.String())
}

// quantityFromWeight qty = trunc(|kg| / coeficiente); el resto se descarta.
func (e *DerivationEngine) quantityFromWeight(rec entity.Record) {
	if !rec.Has(entity.FieldQty) || !rec.Has(entity.FieldKg) {
		return
	}
	qty, _, err := e.conv.QuantityFromWeight(rec.Number(entity.FieldKg).Abs(), rec.Form())
	if err != nil {
		return
	}
	rec.Set(entity.FieldQty, strconv.FormatInt(qty, 10))
}

func (e *DerivationEngine) inferDryState(rec entity.Record) error {
	if !rec.Has(entity.FieldDryState) {
		return nil
	}
	state, ok, err := e.drying.InferDryState(
		rec.Value(entity.FieldProductionDate),
		rec.Value(entity.FieldSpecies),
		e.now(), e.loc,
	)
	if err != nil {
		return err
	}
	if ok {
		rec.Set(entity.FieldDryState, string(state))
	}
	return nil
}
