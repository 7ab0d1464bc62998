package complete

import (
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// completeLines fase de completado de líneas: refina los estados de IVA
// pendientes con el contexto de toda la factura, ejecuta el reparto
// proporcional de las líneas diferidas a strategy, aplica el régimen de
// margen y deriva los precios faltantes. Si tras todo esto alguna línea
// sigue sin tarifa, la factura se aborta con UnresolvedVatRateError.
func (c *Completor) completeLines(inv *entity.Invoice) error {
	// Primera pasada: derivar precios de lo ya resuelto para poder calcular
	// los subtotales por tarifa.
	for _, line := range inv.Lines {
		if line.Nature == "" {
			line.Nature = c.cfg.DefaultNature
		}
		if line.Vat.Resolved() {
			line.CompletePrices()
		}
	}

	invoiceRates := resolvedRates(inv.Lines)

	// Segunda pasada: refinar rangos y estados diferidos con el contexto de
	// la factura.
	for _, line := range inv.Lines {
		switch line.Vat.Kind {
		case entity.VatStateRange:
			candidates := c.vat.RatesIn(line.Vat.Min, line.Vat.Max)
			if rate, ok := pickUnique(candidates, invoiceRates); ok {
				line.Vat = entity.VatResolved(rate, entity.VatSourceCompletor)
				line.CompletePrices()
			}
		case entity.VatStateDeferCompletor, entity.VatStateParent:
			source := entity.VatSourceCompletor
			if line.Vat.Kind == entity.VatStateParent {
				source = entity.VatSourceParent
			}
			if rate, ok := uniqueInvoiceRate(invoiceRates); ok {
				line.Vat = entity.VatResolved(rate, source)
				line.CompletePrices()
			}
		}
	}

	c.applyMarginScheme(inv)
	c.splitStrategyLines(inv)

	// Validación final: toda línea que va a la factura debe tener tarifa.
	for i, line := range inv.Lines {
		if line.DoNotAdd {
			continue
		}
		if !line.Vat.Resolved() {
			return &domain.UnresolvedVatRateError{
				Shop:      inv.Shop,
				SourceRef: inv.SourceReference,
				LineIndex: i,
				Product:   line.Product,
			}
		}
		line.CompletePrices()
	}
	return nil
}

// applyMarginScheme régimen de margen: el IVA se calcula sobre precio menos
// costo; la línea conserva el precio unitario con IVA y registra el costo.
func (c *Completor) applyMarginScheme(inv *entity.Invoice) {
	if !c.cfg.MarginProducts {
		return
	}
	for _, line := range inv.Lines {
		if line.CostPrice == nil || !line.Vat.Resolved() || line.Vat.Exempt() {
			continue
		}
		if line.UnitPriceInc == nil && line.UnitPrice != nil {
			// En régimen de margen el precio de venta reportado es con IVA.
			inc := *line.UnitPrice
			line.UnitPriceInc = &inc
			line.UnitPrice = nil
		}
		if line.UnitPriceInc != nil {
			margin := line.UnitPriceInc.Sub(*line.CostPrice)
			vatOnMargin := margin.Sub(margin.Div(decimal.NewFromInt(1).Add(line.Vat.Rate.Div(decimal.NewFromInt(100)))))
			line.Meta.Set(entity.MetaVatAmount, vatOnMargin)
			line.Meta.Add(entity.MetaFieldsCalculated, "vat-amount-margin")
		}
	}
}

// resolvedRates tarifas distintas, resueltas, no exentas, de las líneas que
// van a la factura.
func resolvedRates(lines []*entity.Line) []decimal.Decimal {
	var rates []decimal.Decimal
	for _, l := range lines {
		if l.DoNotAdd || !l.Vat.Resolved() || l.Vat.Exempt() {
			continue
		}
		if !containsRate(rates, l.Vat.Rate) {
			rates = append(rates, l.Vat.Rate)
		}
	}
	return rates
}

func containsRate(rates []decimal.Decimal, rate decimal.Decimal) bool {
	for _, r := range rates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// pickUnique la única candidata que además aparece en la factura; si la
// intersección no es única, se intenta con las candidatas a secas.
func pickUnique(candidates, invoiceRates []decimal.Decimal) (decimal.Decimal, bool) {
	var both []decimal.Decimal
	for _, c := range candidates {
		if containsRate(invoiceRates, c) {
			both = append(both, c)
		}
	}
	if len(both) == 1 {
		return both[0], true
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return decimal.Zero, false
}

// uniqueInvoiceRate la única tarifa positiva de la factura; sin tarifas
// positivas, una factura donde todas las líneas resueltas coinciden en una
// sola tarifa (la del 0% incluida) también la determina.
func uniqueInvoiceRate(rates []decimal.Decimal) (decimal.Decimal, bool) {
	var positive []decimal.Decimal
	for _, r := range rates {
		if r.GreaterThan(decimal.Zero) {
			positive = append(positive, r)
		}
	}
	if len(positive) == 1 {
		return positive[0], true
	}
	if len(positive) == 0 && len(rates) == 1 {
		return rates[0], true
	}
	return decimal.Zero, false
}
