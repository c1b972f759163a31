package report

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// reloadTimeout plazo de una recarga cuando el llamador no fija uno.
const reloadTimeout = 5 * time.Minute

// snapshot último reporte exitoso más el guard de recargas en vuelo.
// Recargas superpuestas comparten una sola ejecución de build.
type snapshot[T any] struct {
	key   string
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	value T
	at    time.Time
	has   bool
}

func newSnapshot[T any](key string, ttl time.Duration) *snapshot[T] {
	return &snapshot[T]{key: key, ttl: ttl, now: time.Now}
}

// fresh devuelve el valor en caché si no venció.
func (s *snapshot[T]) fresh() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has || s.ttl <= 0 || s.now().Sub(s.at) >= s.ttl {
		var zero T
		return zero, false
	}
	return s.value, true
}

// reload ejecuta build una sola vez para todos los llamadores concurrentes.
// keep decide si el resultado se guarda (los reportes con panel de error no se guardan).
// La ejecución compartida no se cancela si el primer llamador abandona, pero conserva su plazo.
func (s *snapshot[T]) reload(ctx context.Context, build func(context.Context) T, keep func(T) bool) T {
	v, _, _ := s.group.Do(s.key, func() (any, error) {
		bctx, cancel := detach(ctx)
		defer cancel()
		out := build(bctx)
		if keep(out) {
			s.mu.Lock()
			s.value, s.at, s.has = out, s.now(), true
			s.mu.Unlock()
		}
		return out, nil
	})
	return v.(T)
}

// detach separa ctx de su cancelación y le vuelve a aplicar el plazo original o reloadTimeout.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithTimeout(base, reloadTimeout)
}
