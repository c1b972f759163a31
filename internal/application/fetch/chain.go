package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// Strategy una forma completa de leer el conjunto de registros; sustituto de las demás.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) ([]entity.Record, error)
}

// Result registros leídos y la estrategia que los produjo.
type Result struct {
	Records []entity.Record
	Mode    string
}

var errNoStrategies = errors.New("fetch: no hay estrategias")

// Chain prueba las estrategias en orden y devuelve la primera que no falla.
// Un resultado vacío o parcial no es falla. Agotadas todas, se propaga el error de la última.
func Chain(ctx context.Context, log *logger.Logger, strategies ...Strategy) ([]entity.Record, string, error) {
	if len(strategies) == 0 {
		return nil, "", errNoStrategies
	}
	if log == nil {
		log = logger.Nop()
	}
	var lastErr error
	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		recs, err := s.Run(ctx)
		if err == nil {
			log.Info().Str("mode", s.Name).Int("records", len(recs)).Msg("lectura completada")
			return recs, s.Name, nil
		}
		lastErr = err
		next := ""
		if i+1 < len(strategies) {
			next = strategies[i+1].Name
		}
		log.Warn().Err(err).Str("strategy", s.Name).Str("next", next).Msg("estrategia de lectura fallida")
	}
	return nil, "", lastErr
}

// withTimeout contexto por llamada al almacén; timeout <= 0 no limita.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
