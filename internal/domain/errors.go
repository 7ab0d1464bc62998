package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrMissingData   = errors.New("dato requerido ausente en la fuente")
	ErrUnresolvedVat = errors.New("tarifa de IVA sin resolver")
	ErrConfiguration = errors.New("configuración inválida")
)

// MissingDataError un colector no encontró un campo obligatorio de la fuente.
// Aborta la conversión de la factura: nunca se sustituye por cero en silencio.
type MissingDataError struct {
	Shop      string
	SourceRef string
	LineIndex int
	LineType  string
	Field     string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("dato ausente: tienda=%s ref=%s línea=%d tipo=%s campo=%s",
		e.Shop, e.SourceRef, e.LineIndex, e.LineType, e.Field)
}

// Unwrap permite errors.Is(err, ErrMissingData).
func (e *MissingDataError) Unwrap() error { return ErrMissingData }

// UnresolvedVatRateError ninguna fase pudo resolver la tarifa de IVA de una
// línea antes de la serialización final.
type UnresolvedVatRateError struct {
	Shop      string
	SourceRef string
	LineIndex int
	Product   string
}

func (e *UnresolvedVatRateError) Error() string {
	return fmt.Sprintf("IVA sin resolver: tienda=%s ref=%s línea=%d producto=%q",
		e.Shop, e.SourceRef, e.LineIndex, e.Product)
}

func (e *UnresolvedVatRateError) Unwrap() error { return ErrUnresolvedVat }

// ConfigurationError valor de configuración inválido o ausente; falla al
// inicio de la tarea de completado afectada.
type ConfigurationError struct {
	Setting string
	Value   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuración inválida: %s=%q (%s)", e.Setting, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
