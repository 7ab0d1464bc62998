package complete

import (
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain"
)

// Fuente del número de factura.
const (
	NumberSourceAcumulus = "acumulus" // la contabilidad asigna el número
	NumberSourceOrder    = "order"    // referencia del pedido de la tienda
	NumberSourceInvoice  = "invoice"  // referencia de la factura de la tienda, con retroceso al pedido
)

// Fecha de emisión a usar.
const (
	DateSourceTransfer = "transfer" // sin fecha: la contabilidad usa la de transferencia
	DateSourceOrder    = "order"    // fecha de creación del pedido
	DateSourceInvoice  = "invoice"  // fecha de la factura de la tienda, con retroceso al pedido
)

// Modo de borrador (concept).
const (
	ConceptNever      = "never"
	ConceptAlways     = "always"
	ConceptOnWarnings = "on-warnings" // borrador solo si alguna fase registró advertencias
)

// Settings configuración del completor, resuelta una vez en el arranque
// desde pkg/config (el completor no lee viper directamente).
type Settings struct {
	NumberSource string
	DateSource   string
	ConceptMode  string

	DefaultCostCenter    string
	DefaultAccountNumber string
	// Overrides por método de pago (clave = método reportado por la tienda).
	AccountNumberByPaymentMethod map[string]string
	CostCenterByPaymentMethod    map[string]string

	TemplateDue  string // plantilla para facturas pendientes de pago
	TemplatePaid string // plantilla para pagadas; vacía = usar TemplateDue

	DefaultCountryCode string // retroceso del país del cliente (ej. "nl")
	AnonymizeCustomer  bool   // vaciar datos personales del cliente

	EmailAsPdfEnabled bool
	EmailFrom         string
	EmailBcc          string
	EmailSubject      string // admite el token [#] → número de factura

	MarginProducts bool // régimen de margen: IVA sobre precio − costo
	DefaultNature  string

	// ReconcileTolerance tolerancia absoluta de la reconciliación de totales
	// (nominal 0.02; configurable según la precisión de la fuente).
	ReconcileTolerance decimal.Decimal
}

// DefaultReconcileTolerance tolerancia nominal de reconciliación.
var DefaultReconcileTolerance = decimal.RequireFromString("0.02")

// Validate verifica los enums de configuración; falla rápido antes de
// ejecutar cualquier tarea.
func (s Settings) Validate() error {
	switch s.NumberSource {
	case NumberSourceAcumulus, NumberSourceOrder, NumberSourceInvoice:
	default:
		return &domain.ConfigurationError{Setting: "invoice.number_source", Value: s.NumberSource, Reason: "valor no reconocido"}
	}
	switch s.DateSource {
	case DateSourceTransfer, DateSourceOrder, DateSourceInvoice:
	default:
		return &domain.ConfigurationError{Setting: "invoice.date_source", Value: s.DateSource, Reason: "valor no reconocido"}
	}
	switch s.ConceptMode {
	case ConceptNever, ConceptAlways, ConceptOnWarnings:
	default:
		return &domain.ConfigurationError{Setting: "invoice.concept_mode", Value: s.ConceptMode, Reason: "valor no reconocido"}
	}
	return nil
}
