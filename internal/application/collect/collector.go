package collect

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Collector recolecta la factura cruda desde una fuente de tienda: una línea
// por artículo (con hijas), envío, descuentos, recargo de pago, vales y otros
// cargos. Las tarifas de IVA se resuelven con el resolutor; lo que no puede
// resolverse localmente queda en estado diferido.
type Collector struct {
	vat   *vat.Resolver
	taxes TaxClassResolver
	log   zerolog.Logger
}

// NewCollector construye el colector. taxes puede ser nil si la tienda no
// expone consulta fiscal (toda resolución será numérica o diferida).
func NewCollector(resolver *vat.Resolver, taxes TaxClassResolver, log zerolog.Logger) *Collector {
	return &Collector{vat: resolver, taxes: taxes, log: log}
}

// Collect construye la factura cruda: cliente, totales, moneda y el árbol de
// líneas en orden de presentación. Un campo obligatorio ausente aborta la
// conversión con MissingDataError; nunca se sustituye por cero en silencio.
func (c *Collector) Collect(src OrderSource) (*entity.Invoice, error) {
	inv := &entity.Invoice{
		Shop:            src.Shop(),
		SourceType:      src.SourceType(),
		SourceReference: src.Reference(),
		Source: entity.SourceInfo{
			OrderReference:   src.OrderReference(),
			InvoiceReference: src.InvoiceReference(),
			OrderDate:        src.OrderDate(),
			InvoiceDate:      src.InvoiceDate(),
			PaymentMethod:    src.PaymentMethod(),
		},
		PaymentStatus:   entity.PaymentStatusDue,
		PaymentDate:     src.PaymentDate(),
		Totals:          src.Totals(),
		Currency:        src.Currency(),
		Customer:        collectCustomer(src.Customer()),
	}
	if src.Paid() {
		inv.PaymentStatus = entity.PaymentStatusPaid
	}
	inv.Totals.Complete()

	items := src.Items()
	if len(items) == 0 {
		return nil, &domain.MissingDataError{
			Shop: inv.Shop, SourceRef: inv.SourceReference,
			LineIndex: -1, LineType: string(entity.LineTypeItem), Field: "items",
		}
	}
	for i, it := range items {
		line, err := c.collectItem(inv, i, it)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}

	if shipping := src.Shipping(); shipping != nil {
		inv.Lines = append(inv.Lines, c.collectShipping(src.ShippingDescription(), *shipping))
	}
	for _, d := range src.Discounts() {
		inv.Lines = append(inv.Lines, c.collectDiscount(d))
	}
	if fee := src.PaymentFee(); fee != nil {
		inv.Lines = append(inv.Lines, c.collectPaymentFee(*fee))
	}
	for _, v := range src.Vouchers() {
		inv.Lines = append(inv.Lines, c.collectVoucher(v))
	}
	for _, ch := range src.OtherCharges() {
		inv.Lines = append(inv.Lines, c.collectOther(ch))
	}

	c.log.Debug().
		Str("shop", inv.Shop).
		Str("source", inv.SourceReference).
		Int("lines", len(inv.Lines)).
		Msg("factura recolectada")
	return inv, nil
}

func collectCustomer(src CustomerSource) *entity.Customer {
	if src == nil {
		return &entity.Customer{}
	}
	return &entity.Customer{
		ContactName: src.ContactName(),
		FullName:    src.FullName(),
		Address1:    src.Address1(),
		Address2:    src.Address2(),
		PostalCode:  src.PostalCode(),
		City:        src.City(),
		CountryCode: src.CountryCode(),
		VatNumber:   src.VatNumber(),
		Telephone:   src.Telephone(),
		Email:       src.Email(),
	}
}

// collectItem línea de artículo: precio y cantidad de la propia línea, IVA por
// evidencia numérica con retroceso a la clase fiscal del producto. Las hijas
// (variantes, componentes) se emiten con precio cero y tarifa heredada.
func (c *Collector) collectItem(inv *entity.Invoice, index int, src ItemSource) (*entity.Line, error) {
	line := entity.NewLine(entity.LineTypeItem)
	line.Product = src.Product()
	line.ItemNumber = src.ItemNumber()
	line.Quantity = src.Quantity()
	line.Nature = entity.NatureProduct
	line.UnitPrice = src.UnitPriceEx()
	line.UnitPriceInc = src.UnitPriceInc()

	if line.Product == "" {
		return nil, &domain.MissingDataError{
			Shop: inv.Shop, SourceRef: inv.SourceReference,
			LineIndex: index, LineType: string(entity.LineTypeItem), Field: "product",
		}
	}
	if line.UnitPrice == nil && line.UnitPriceInc == nil {
		return nil, &domain.MissingDataError{
			Shop: inv.Shop, SourceRef: inv.SourceReference,
			LineIndex: index, LineType: string(entity.LineTypeItem), Field: "unit-price",
		}
	}

	if pt := src.PriceTolerance(); pt != nil {
		line.Meta.Set(entity.MetaPrecisionUnitPrice, *pt)
	}
	if vt := src.VatTolerance(); vt != nil {
		line.Meta.Set(entity.MetaPrecisionVatAmount, *vt)
	}
	if d := src.DiscountInc(); d != nil {
		line.Meta.Set(entity.MetaLineDiscountInc, *d)
	}

	line.Vat = c.resolveItemVat(line, src)

	for _, childSrc := range src.Children() {
		child := entity.NewLine(entity.LineTypeItem)
		child.Product = childSrc.Product()
		child.ItemNumber = childSrc.ItemNumber()
		child.Quantity = childSrc.Quantity()
		child.Nature = entity.NatureProduct
		child.UnitPrice = childSrc.UnitPriceEx()
		child.UnitPriceInc = childSrc.UnitPriceInc()
		if childSrc.VatAmount() != nil {
			child.Meta.Set(entity.MetaVatAmount, *childSrc.VatAmount())
		}
		// Componentes de bundle con evidencia propia resuelven su tarifa;
		// las opciones/variantes informativas heredan la del padre.
		if child.UnitPrice != nil && childSrc.VatAmount() != nil {
			child.Vat = c.vat.FromAmounts(*child.UnitPrice, *childSrc.VatAmount(), nil, nil)
		} else {
			child.Vat = entity.VatFromParent()
		}
		line.Children = append(line.Children, child)
	}
	return line, nil
}

// resolveItemVat evidencia numérica primero, clase fiscal después.
func (c *Collector) resolveItemVat(line *entity.Line, src ItemSource) entity.VatRateState {
	vatAmount := src.VatAmount()
	if vatAmount != nil {
		line.Meta.Set(entity.MetaVatAmount, *vatAmount)
	}

	ex := line.UnitPrice
	// Base derivable de inc − IVA cuando la fuente solo reporta el precio con IVA.
	if ex == nil && line.UnitPriceInc != nil && vatAmount != nil {
		derived := line.UnitPriceInc.Sub(*vatAmount)
		ex = &derived
	}
	if ex != nil && vatAmount != nil {
		state := c.vat.FromAmounts(*ex, *vatAmount, src.PriceTolerance(), src.VatTolerance())
		if state.Kind != entity.VatStateDeferCompletor {
			return state
		}
	}
	// IVA derivable de inc − ex cuando falta el monto de IVA.
	if line.UnitPrice != nil && line.UnitPriceInc != nil && vatAmount == nil {
		derived := line.UnitPriceInc.Sub(*line.UnitPrice)
		state := c.vat.FromAmounts(*line.UnitPrice, derived, src.PriceTolerance(), src.VatTolerance())
		if state.Kind != entity.VatStateDeferCompletor {
			return state
		}
	}

	// Retroceso: clase fiscal del producto.
	if classID := src.TaxClassID(); classID != "" && c.taxes != nil {
		line.Meta.Set(entity.MetaVatClassID, classID)
		rates := c.taxes.RatesForClass(classID)
		for _, r := range rates {
			line.Meta.Add(entity.MetaVatRateLookup, r.Rate)
			line.Meta.Add(entity.MetaVatRateLookupLabel, r.Label)
		}
		return c.vat.FromClassRates(rates)
	}
	return entity.VatDeferCompletor()
}

// collectShipping como una línea de artículo pero con montos a nivel de
// pedido. El envío gratuito sigue produciendo una línea: solo la ausencia
// total de envío (fuente nil) se omite, y eso lo decide el llamador.
func (c *Collector) collectShipping(description string, amounts AmountPair) *entity.Line {
	line := entity.NewLine(entity.LineTypeShipping)
	line.Product = description
	if line.Product == "" {
		line.Product = "Envío"
	}
	line.Nature = entity.NatureService
	c.applyAmounts(line, amounts)
	return line
}

// collectDiscount el descuento solo trae monto con IVA; la tarifa queda
// diferida al reparto proporcional entre las tarifas reales de la factura.
func (c *Collector) collectDiscount(src DiscountSource) *entity.Line {
	line := entity.NewLine(entity.LineTypeDiscount)
	line.Product = src.Description()
	if line.Product == "" {
		line.Product = "Descuento"
	}
	line.Nature = entity.NatureProduct
	inc := src.AmountInc()
	line.UnitPriceInc = &inc
	line.Vat = entity.VatDeferStrategy()
	return line
}

// collectPaymentFee recargo de pago; monto exactamente cero = no se cobró,
// la línea se marca para no agregarse.
func (c *Collector) collectPaymentFee(amounts AmountPair) *entity.Line {
	line := entity.NewLine(entity.LineTypePaymentFee)
	line.Product = "Recargo de pago"
	line.Nature = entity.NatureService
	c.applyAmounts(line, amounts)
	if amountIsZero(amounts) {
		line.DoNotAdd = true
	}
	return line
}

// collectVoucher vale tratado como pago parcial: exento (tarifa -1), monto
// negativo con IVA. Cero = no se usó, no se agrega.
func (c *Collector) collectVoucher(src VoucherSource) *entity.Line {
	line := entity.NewLine(entity.LineTypeVoucher)
	line.Product = src.Description()
	if line.Product == "" {
		line.Product = "Vale"
	}
	line.Nature = entity.NatureProduct
	inc := src.AmountInc()
	line.UnitPriceInc = &inc
	line.UnitPrice = &inc // exento: sin componente de IVA
	line.Vat = entity.VatExempt()
	if inc.IsZero() {
		line.DoNotAdd = true
	}
	return line
}

// collectOther cargo adicional, análogo al envío; cero = no se agrega.
func (c *Collector) collectOther(src ChargeSource) *entity.Line {
	line := entity.NewLine(entity.LineTypeOther)
	line.Product = src.Description()
	line.Nature = entity.NatureService
	amounts := src.Amounts()
	c.applyAmounts(line, amounts)
	if amountIsZero(amounts) {
		line.DoNotAdd = true
	}
	return line
}

// applyAmounts vuelca un AmountPair sobre la línea y resuelve el IVA con los
// miembros disponibles.
func (c *Collector) applyAmounts(line *entity.Line, amounts AmountPair) {
	line.UnitPrice = amounts.Ex
	line.UnitPriceInc = amounts.Inc
	if amounts.Vat != nil {
		line.Meta.Set(entity.MetaVatAmount, *amounts.Vat)
	}

	ex := amounts.Ex
	vatAmount := amounts.Vat
	if ex == nil && amounts.Inc != nil && vatAmount != nil {
		derived := amounts.Inc.Sub(*vatAmount)
		ex = &derived
	}
	if vatAmount == nil && amounts.Ex != nil && amounts.Inc != nil {
		derived := amounts.Inc.Sub(*amounts.Ex)
		vatAmount = &derived
	}
	if ex != nil && vatAmount != nil {
		line.Vat = c.vat.FromAmounts(*ex, *vatAmount, nil, nil)
		return
	}
	line.Vat = entity.VatDeferCompletor()
}

func amountIsZero(a AmountPair) bool {
	for _, m := range []*decimal.Decimal{a.Ex, a.Inc, a.Vat} {
		if m != nil && !m.IsZero() {
			return false
		}
	}
	return true
}
