package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
)

// storePinger es el contrato mínimo para comprobar que el almacén de registros responde.
// Lo implementan *recordstore.Client y *postgres.LedgerRecordRepo.
type storePinger interface {
	Ping(ctx context.Context, container string) error
}

// RequireStore devuelve un middleware que corta la petición si el almacén no responde.
// Se usa en las recargas forzadas.
//
//   - 503 STORE_UNAVAILABLE → el ping falló o excedió el plazo.
//   - Sin pinger configurado deja pasar.
func RequireStore(pinger storePinger, container string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pinger == nil {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx, container); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "STORE_UNAVAILABLE",
				Message: "el almacén de registros no responde, intente más tarde",
			})
		}
		return c.Next()
	}
}
