package entity

import "github.com/shopspring/decimal"

// Tipos de línea de factura.
type LineType string

const (
	LineTypeItem       LineType = "item"
	LineTypeShipping   LineType = "shipping"
	LineTypeDiscount   LineType = "discount"
	LineTypePaymentFee LineType = "payment-fee"
	LineTypeVoucher    LineType = "voucher"
	LineTypeOther      LineType = "other"
)

// Naturaleza de la línea (bienes o servicios).
const (
	NatureProduct = "Product"
	NatureService = "Service"
)

// VatRateSource indica cómo se determinó la tarifa de IVA de una línea.
type VatRateSource string

const (
	VatSourceExact     VatRateSource = "exact"      // tarifa autoritativa de la fuente (regla fiscal)
	VatSourceExactZero VatRateSource = "exact-0"    // monto base ~0: línea sin IVA
	VatSourceRange     VatRateSource = "calculated" // única tarifa legal dentro del rango calculado
	VatSourceCompletor VatRateSource = "completor"  // resuelta en la fase de completado con contexto de factura
	VatSourceStrategy  VatRateSource = "strategy"   // resuelta por reparto proporcional entre tarifas
	VatSourceParent    VatRateSource = "parent"     // heredada de la línea padre
)

// VatStateKind discrimina la unión VatRateState.
type VatStateKind int

const (
	VatStateResolved      VatStateKind = iota // tarifa conocida (Rate)
	VatStateRange                             // rango acotado [Min, Max], pendiente de refinamiento
	VatStateDeferCompletor                    // sin evidencia local; decide el completor
	VatStateDeferStrategy                     // reparto proporcional entre las tarifas de la factura
	VatStateParent                            // la tarifa se copia de la línea padre
)

// VatRateExempt es el centinela para líneas exentas / IVA no aplicable
// (ej. vales tratados como pago parcial).
var VatRateExempt = decimal.NewFromInt(-1)

// VatRateState es la unión etiquetada que reemplaza los marcadores string
// "completor" / "strategy" dispersos: cada fase del pipeline decide según Kind.
type VatRateState struct {
	Kind   VatStateKind
	Rate   decimal.Decimal // válido si Kind == VatStateResolved
	Min    decimal.Decimal // válido si Kind == VatStateRange
	Max    decimal.Decimal
	Source VatRateSource
}

// VatResolved crea un estado resuelto con la procedencia indicada.
func VatResolved(rate decimal.Decimal, source VatRateSource) VatRateState {
	return VatRateState{Kind: VatStateResolved, Rate: rate, Source: source}
}

// VatExempt crea el estado exento (tarifa -1).
func VatExempt() VatRateState {
	return VatRateState{Kind: VatStateResolved, Rate: VatRateExempt, Source: VatSourceExact}
}

// VatRange crea un estado de rango pendiente de refinamiento.
func VatRange(min, max decimal.Decimal) VatRateState {
	return VatRateState{Kind: VatStateRange, Min: min, Max: max, Source: VatSourceCompletor}
}

// VatDeferCompletor difiere la resolución al completor (contexto de factura).
func VatDeferCompletor() VatRateState {
	return VatRateState{Kind: VatStateDeferCompletor, Source: VatSourceCompletor}
}

// VatDeferStrategy difiere la resolución al reparto proporcional.
func VatDeferStrategy() VatRateState {
	return VatRateState{Kind: VatStateDeferStrategy, Source: VatSourceStrategy}
}

// VatFromParent marca que la tarifa se hereda de la línea padre.
func VatFromParent() VatRateState {
	return VatRateState{Kind: VatStateParent, Source: VatSourceParent}
}

// Resolved indica si la tarifa ya es definitiva.
func (s VatRateState) Resolved() bool { return s.Kind == VatStateResolved }

// Exempt indica si la línea es exenta (tarifa -1).
func (s VatRateState) Exempt() bool {
	return s.Kind == VatStateResolved && s.Rate.Equal(VatRateExempt)
}

// Line es una línea candidata de la factura Acumulus. Los montos usan
// decimal para evitar errores de redondeo binario; UnitPrice y UnitPriceInc
// son punteros porque la fuente puede reportar solo uno de los dos.
type Line struct {
	Product      string
	ItemNumber   string
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal // sin IVA
	UnitPriceInc *decimal.Decimal // con IVA
	CostPrice    *decimal.Decimal // precio de costo (régimen de margen)
	Vat          VatRateState
	Nature       string
	Type         LineType
	DoNotAdd     bool // excluir de la factura final (ej. cargo de pago en cero)
	Meta         Metadata
	Children     []*Line // líneas hijas (componentes de bundle, variantes, opciones)
}

// NewLine crea una línea del tipo dado con metadata inicializada.
func NewLine(t LineType) *Line {
	return &Line{Type: t, Quantity: decimal.NewFromInt(1), Meta: NewMetadata()}
}

// VatRate devuelve la tarifa resuelta o nil si sigue pendiente.
func (l *Line) VatRate() *decimal.Decimal {
	if l.Vat.Resolved() {
		r := l.Vat.Rate
		return &r
	}
	return nil
}

// AmountInc devuelve cantidad × precio unitario con IVA (cero si falta el precio).
func (l *Line) AmountInc() decimal.Decimal {
	if l.UnitPriceInc == nil {
		return decimal.Zero
	}
	return l.UnitPriceInc.Mul(l.Quantity)
}

// CompletePrices deriva el miembro faltante del par UnitPrice/UnitPriceInc a
// partir de la tarifa resuelta. Registra en metadata qué campo fue calculado.
func (l *Line) CompletePrices() {
	if !l.Vat.Resolved() || l.Vat.Exempt() {
		return
	}
	factor := decimal.NewFromInt(1).Add(l.Vat.Rate.Div(decimal.NewFromInt(100)))
	switch {
	case l.UnitPrice != nil && l.UnitPriceInc == nil:
		inc := l.UnitPrice.Mul(factor)
		l.UnitPriceInc = &inc
		l.Meta.Add(MetaFieldsCalculated, "unit-price-inc")
	case l.UnitPriceInc != nil && l.UnitPrice == nil:
		ex := l.UnitPriceInc.Div(factor)
		l.UnitPrice = &ex
		l.Meta.Add(MetaFieldsCalculated, "unit-price")
	}
}

// StripPrice convierte la línea en una sublínea descriptiva de precio cero.
func (l *Line) StripPrice() {
	zero := decimal.Zero
	l.UnitPrice = &zero
	l.UnitPriceInc = &zero
	l.Meta.Delete(MetaVatAmount)
}
