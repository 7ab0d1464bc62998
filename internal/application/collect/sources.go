// Package collect extrae las líneas de factura normalizadas desde una fuente
// de tienda (pedido o nota de crédito). La fuente se consume únicamente a
// través de accesores con nombre: ningún tipo interno de plataforma cruza
// esta frontera.
package collect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// AmountPair montos de un cargo a nivel de pedido. Cualquier miembro puede
// faltar: el colector trabaja con los dos que estén disponibles.
type AmountPair struct {
	Ex  *decimal.Decimal // sin IVA
	Inc *decimal.Decimal // con IVA
	Vat *decimal.Decimal // monto de IVA
}

// ItemSource una línea de artículo del pedido, con sus líneas hijas
// (componentes de bundle, variantes, opciones).
type ItemSource interface {
	Product() string
	ItemNumber() string
	Quantity() decimal.Decimal
	UnitPriceEx() *decimal.Decimal
	UnitPriceInc() *decimal.Decimal
	VatAmount() *decimal.Decimal
	// TaxClassID clase fiscal aplicable, "" si la fuente no la conoce.
	TaxClassID() string
	// PriceTolerance / VatTolerance precisión declarada de los montos; nil usa la global.
	PriceTolerance() *decimal.Decimal
	VatTolerance() *decimal.Decimal
	// DiscountInc descuento ya aplicado sobre esta línea (con IVA), nil si no hay.
	DiscountInc() *decimal.Decimal
	Children() []ItemSource
}

// DiscountSource un descuento o cupón a nivel de pedido. Los descuentos en
// general solo traen el monto con IVA, sin desglose por tarifa.
type DiscountSource interface {
	Description() string
	AmountInc() decimal.Decimal
}

// VoucherSource un vale o tarjeta regalo usado como pago parcial.
type VoucherSource interface {
	Description() string
	AmountInc() decimal.Decimal
}

// ChargeSource un cargo adicional del pedido (tasa de gestión, embalaje…).
type ChargeSource interface {
	Description() string
	Amounts() AmountPair
}

// CustomerSource datos del cliente según la tienda.
type CustomerSource interface {
	ContactName() string
	FullName() string
	Address1() string
	Address2() string
	PostalCode() string
	City() string
	CountryCode() string
	VatNumber() string
	Telephone() string
	Email() string
}

// OrderSource la fuente completa de una conversión. Los colaboradores de
// plataforma entregan los datos ya materializados; aquí no hay I/O.
type OrderSource interface {
	Shop() string
	SourceType() entity.SourceType
	Reference() string
	OrderReference() string
	InvoiceReference() string
	OrderDate() time.Time
	InvoiceDate() *time.Time

	Items() []ItemSource
	// Shipping nil cuando el pedido literalmente no tiene envío; el envío
	// gratuito sigue produciendo una línea (montos en cero).
	Shipping() *AmountPair
	ShippingDescription() string
	Discounts() []DiscountSource
	// PaymentFee nil cuando no se cobró recargo de pago.
	PaymentFee() *AmountPair
	Vouchers() []VoucherSource
	OtherCharges() []ChargeSource

	PaymentMethod() string
	Paid() bool
	PaymentDate() *time.Time

	Customer() CustomerSource
	Totals() entity.Totals
	Currency() entity.Currency
}

// TaxClassResolver consulta fiscal de la tienda: tarifas vigentes para una
// clase de impuesto. Devolver más de una tarifa es un resultado degradado
// válido que el pipeline tolera difiriendo la resolución.
type TaxClassResolver interface {
	RatesForClass(classID string) []vat.ClassRate
}
