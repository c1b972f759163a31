// Package scheduler refresca periódicamente las instantáneas de los reportes.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// refreshTimeout plazo de cada recarga programada.
const refreshTimeout = 2 * time.Minute

// StockReloader lo implementa *report.StockReportUseCase.
type StockReloader interface {
	Reload(ctx context.Context) *dto.StockReportDTO
}

// ShipmentReloader lo implementa *report.ShipmentReportUseCase.
type ShipmentReloader interface {
	Reload(ctx context.Context) *dto.ShipmentReportDTO
}

// Scheduler recarga ambos reportes según una expresión cron de 5 campos.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	stock     StockReloader
	shipments ShipmentReloader
	log       *logger.Logger
}

// New crea el scheduler. stock o shipments pueden ser nil.
func New(spec string, loc *time.Location, stock StockReloader, shipments ShipmentReloader, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	// una recarga lenta no se solapa con la siguiente
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: c, spec: spec, stock: stock, shipments: shipments, log: log.Component("scheduler")}
}

// Start registra la tarea y arranca el cron. Con spec vacío no programa nada.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.log.Info().Msg("refresco programado deshabilitado")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.Refresh); err != nil {
		return err
	}
	s.log.Info().Str("schedule", s.spec).Msg("iniciando scheduler")
	s.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que termine la recarga en curso (o a ctx).
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info().Msg("deteniendo scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("recarga en curso no terminó antes del apagado")
	}
}

// Refresh recarga ambos reportes una vez; un panel de error se registra y no corta la otra recarga.
func (s *Scheduler) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if s.stock != nil {
		if rep := s.stock.Reload(ctx); rep != nil && rep.Error != nil {
			s.log.Error().Str("detail", rep.Error.Detail).Msg("recarga programada de existencias falló")
		} else if rep != nil {
			s.log.Debug().Int("records", rep.RecordCount).Str("mode", rep.FetchMode).Msg("existencias recargadas")
		}
	}
	if s.shipments != nil {
		if rep := s.shipments.Reload(ctx); rep != nil && rep.Error != nil {
			s.log.Error().Str("detail", rep.Error.Detail).Msg("recarga programada de despachos falló")
		} else if rep != nil {
			s.log.Debug().Int("records", rep.RecordCount).Msg("despachos recargados")
		}
	}
}
