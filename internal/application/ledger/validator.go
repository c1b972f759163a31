package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// Mensajes de rechazo; el runtime de formularios los muestra tal cual.
const (
	MsgWeightRequired      = "Las salidas requieren el peso (kg)."
	MsgDestinationRequired = "Las salidas requieren el destino de envío."
	MsgNotDryShipment      = "No se puede despachar leña que no está seca."
	MsgValidationFailed    = "La validación falló. Intente de nuevo o contacte al administrador."
	MsgSaveFailed          = "No se pudo guardar el registro."
)

// SubmitResult resultado de la validación final; Error vacío permite guardar.
type SubmitResult struct {
	Error string
}

// OK indica que el guardado puede continuar.
func (r SubmitResult) OK() bool { return r.Error == "" }

// SubmissionValidator control final de consistencia, una vez por intento de guardado.
type SubmissionValidator struct {
	cfg      config.StockConfig
	identity IdentityLookup
	log      *logger.Logger
}

// NewSubmissionValidator construye el validador.
func NewSubmissionValidator(cfg config.StockConfig, identity IdentityLookup, log *logger.Logger) *SubmissionValidator {
	if identity == nil {
		identity = ContextIdentity{}
	}
	return &SubmissionValidator{cfg: cfg, identity: identity, log: log.Component("validator")}
}

// Validate revisa el registro en orden (la primera falla gana) y, si pasa, normaliza signo y etiqueta en sitio.
func (v *SubmissionValidator) Validate(ctx context.Context, rec entity.Record) (res SubmitResult) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error().Str("panic", fmt.Sprint(r)).Msg("error interno en validación")
			res = SubmitResult{Error: MsgValidationFailed}
		}
	}()
	if rec == nil {
		return SubmitResult{}
	}

	outbound := rec.Direction().IsOutbound()
	kg := rec.Number(entity.FieldKg)

	if outbound {
		if kg.IsZero() {
			return SubmitResult{Error: MsgWeightRequired}
		}
		if strings.TrimSpace(rec.Value(entity.FieldShippingTo)) == "" {
			return SubmitResult{Error: MsgDestinationRequired}
		}
		if entity.NormalizeDryState(rec.Value(entity.FieldDryState)) == entity.DryStateNotDry && !v.isAdmin(ctx) {
			return SubmitResult{Error: MsgNotDryShipment}
		}
	}

	work := rec.Clone()
	if work.Has(entity.FieldKg) {
		abs := kg.Abs()
		if outbound {
			abs = abs.Neg()
		}
		work.Set(entity.FieldKg, abs.String())
	}
	species := strings.TrimSpace(work.Value(entity.FieldSpecies))
	form := strings.TrimSpace(work.Value(entity.FieldUnit))
	if work.Has(entity.FieldSpForm) && work.Has(entity.FieldSpecies) && work.Has(entity.FieldUnit) {
		label := ""
		if species != "" && form != "" {
			label = species + "_" + form
		}
		work.Set(entity.FieldSpForm, label)
	}

	for code, f := range work {
		if dst, ok := rec.Get(code); ok {
			*dst = *f
		}
	}
	return SubmitResult{}
}

// isAdmin consulta la identidad; un fallo se registra y se trata como no administrador.
func (v *SubmissionValidator) isAdmin(ctx context.Context) bool {
	code, err := v.identity.CurrentUserCode(ctx)
	if err != nil {
		v.log.Warn().Err(err).Msg("no se pudo obtener el usuario actual; se trata como no administrador")
		return false
	}
	return v.cfg.IsAdmin(code)
}
