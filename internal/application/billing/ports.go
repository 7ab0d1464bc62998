package billing

import "github.com/facturalink/acumulus-bridge/internal/domain/entity"

// EnvelopeBuilder serializa la factura normalizada al sobre XML del servicio
// de contabilidad.
type EnvelopeBuilder interface {
	Build(inv *entity.Invoice) ([]byte, error)
}

// PreviewRenderer genera la vista previa en PDF de la factura convertida.
type PreviewRenderer interface {
	Generate(inv *entity.Invoice) ([]byte, error)
}
