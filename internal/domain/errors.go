package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrNoCoefficient     = errors.New("forma sin coeficiente de conversión")
	ErrInvalidDate       = errors.New("fecha inválida")
	ErrCursorUnsupported = errors.New("el almacén no soporta cursores")
	ErrStoreUnavailable  = errors.New("almacén de registros no disponible")
	ErrIdentityMissing   = errors.New("usuario no identificado")
)
