package stock

import (
	"strings"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel aplica NFKC y recorta espacios (ancho completo y medio ancho agrupan igual).
func NormalizeLabel(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// LabelOrUnset etiqueta normalizada o "(unset)" si queda vacía.
func LabelOrUnset(s string) string {
	if l := NormalizeLabel(s); l != "" {
		return l
	}
	return entity.UnsetLabel
}
