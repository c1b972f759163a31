package ledger

import (
	"context"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// EventProcessor despacha los eventos de registro del runtime de formularios.
type EventProcessor struct {
	engine    *DerivationEngine
	validator *SubmissionValidator
	ledger    repository.LedgerRepository // opcional
	identity  IdentityLookup
	log       *logger.Logger
}

// NewEventProcessor construye el despachador. ledger puede ser nil (el almacén remoto persiste por su cuenta).
func NewEventProcessor(
	engine *DerivationEngine,
	validator *SubmissionValidator,
	ledger repository.LedgerRepository,
	identity IdentityLookup,
	log *logger.Logger,
) *EventProcessor {
	if identity == nil {
		identity = ContextIdentity{}
	}
	return &EventProcessor{
		engine:    engine,
		validator: validator,
		ledger:    ledger,
		identity:  identity,
		log:       log.Component("events"),
	}
}

// Process aplica el evento y devuelve el payload, posiblemente mutado o con Error.
// view.shown no se procesa aquí: se devuelve sin cambios.
func (p *EventProcessor) Process(ctx context.Context, ev dto.RecordEvent) dto.RecordEvent {
	switch ev.Type {
	case dto.EventRecordShown:
		p.engine.Apply(ev.Record, Trigger{Kind: TriggerRecordShown})
	case dto.EventFieldChanged:
		p.engine.Apply(ev.Record, Trigger{Kind: TriggerFieldChanged, Field: entity.FieldCode(ev.Field)})
	case dto.EventRecordSubmit:
		return p.submit(ctx, ev)
	default:
		p.log.Debug().Str("type", ev.Type).Msg("evento sin manejador, se devuelve sin cambios")
	}
	return ev
}

func (p *EventProcessor) submit(ctx context.Context, ev dto.RecordEvent) dto.RecordEvent {
	ev.Error = ""
	res := p.validator.Validate(ctx, ev.Record)
	if !res.OK() {
		ev.Error = res.Error
		return ev
	}
	if p.ledger == nil || ev.Record == nil {
		return ev
	}
	createdBy, err := p.identity.CurrentUserCode(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("registro guardado sin usuario")
	}
	id, err := p.ledger.Create(ctx, ev.Record, createdBy)
	if err != nil {
		p.log.Error().Err(err).Msg("no se pudo persistir el registro")
		ev.Error = MsgSaveFailed
		return ev
	}
	ev.RecordID = id
	return ev
}
