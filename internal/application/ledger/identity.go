package ledger

import (
	"context"
	"strings"

	"github.com/jhoicas/woodstock-api/internal/domain"
)

// IdentityLookup devuelve el código único del usuario actual.
type IdentityLookup interface {
	CurrentUserCode(ctx context.Context) (string, error)
}

type userCodeKey struct{}

// WithUserCode adjunta el código de usuario al contexto (lo usa el middleware HTTP).
func WithUserCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, userCodeKey{}, code)
}

// ContextIdentity lee el código de usuario colocado en el contexto.
type ContextIdentity struct{}

// CurrentUserCode implementa IdentityLookup.
func (ContextIdentity) CurrentUserCode(ctx context.Context) (string, error) {
	code, _ := ctx.Value(userCodeKey{}).(string)
	if strings.TrimSpace(code) == "" {
		return "", domain.ErrIdentityMissing
	}
	return code, nil
}
