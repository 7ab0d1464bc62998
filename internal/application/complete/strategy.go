package complete

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// splitStrategyLines reparto proporcional: cada línea diferida a strategy
// (típicamente un descuento que solo trae monto con IVA) se reparte entre
// las tarifas de IVA realmente presentes en la factura, prorrateando por los
// subtotales sin IVA de cada tarifa. La última porción recibe el resto para
// que la suma repartida sea exacta.
func (c *Completor) splitStrategyLines(inv *entity.Invoice) {
	subtotals := exSubtotalsByRate(inv.Lines)

	var out []*entity.Line
	for _, line := range inv.Lines {
		if line.Vat.Kind != entity.VatStateDeferStrategy {
			out = append(out, line)
			continue
		}
		out = append(out, c.splitOne(inv, line, subtotals)...)
	}
	inv.Lines = out
}

type rateSubtotal struct {
	rate decimal.Decimal
	ex   decimal.Decimal
}

// exSubtotalsByRate subtotales sin IVA por tarifa positiva, en orden de
// aparición (el orden debe ser determinista para que el resto caiga siempre
// en la misma porción).
func exSubtotalsByRate(lines []*entity.Line) []rateSubtotal {
	var subtotals []rateSubtotal
	for _, l := range lines {
		if l.DoNotAdd || !l.Vat.Resolved() || l.Vat.Exempt() || !l.Vat.Rate.GreaterThan(decimal.Zero) {
			continue
		}
		if l.UnitPrice == nil {
			continue
		}
		ex := l.UnitPrice.Mul(l.Quantity)
		placed := false
		for i := range subtotals {
			if subtotals[i].rate.Equal(l.Vat.Rate) {
				subtotals[i].ex = subtotals[i].ex.Add(ex)
				placed = true
				break
			}
		}
		if !placed {
			subtotals = append(subtotals, rateSubtotal{rate: l.Vat.Rate, ex: ex})
		}
	}
	return subtotals
}

func (c *Completor) splitOne(inv *entity.Invoice, line *entity.Line, subtotals []rateSubtotal) []*entity.Line {
	if line.UnitPriceInc == nil {
		inv.AddWarning("strategy-split-sin-monto", fmt.Sprintf("línea %q diferida a strategy sin monto con IVA", line.Product))
		line.Vat = entity.VatExempt()
		zero := decimal.Zero
		line.UnitPriceInc = &zero
		line.UnitPrice = &zero
		return []*entity.Line{line}
	}
	totalInc := line.UnitPriceInc.Mul(line.Quantity)

	switch len(subtotals) {
	case 0:
		// Sin tarifas positivas en la factura: el descuento queda exento.
		inv.AddWarning("strategy-split-sin-tarifas",
			fmt.Sprintf("línea %q: no hay tarifas positivas sobre las que repartir", line.Product))
		line.Vat = entity.VatExempt()
		line.UnitPrice = line.UnitPriceInc
		return []*entity.Line{line}
	case 1:
		// Una sola tarifa: todo el monto va a ella.
		resolveStrategyLine(line, subtotals[0].rate, totalInc, line.Quantity)
		return []*entity.Line{line}
	}

	totalEx := decimal.Zero
	for _, s := range subtotals {
		totalEx = totalEx.Add(s.ex)
	}
	if totalEx.IsZero() {
		inv.AddWarning("strategy-split-base-cero",
			fmt.Sprintf("línea %q: subtotales base en cero, reparto imposible", line.Product))
		line.Vat = entity.VatExempt()
		line.UnitPrice = line.UnitPriceInc
		return []*entity.Line{line}
	}

	split := make([]*entity.Line, 0, len(subtotals))
	assigned := decimal.Zero
	for i, s := range subtotals {
		var portion decimal.Decimal
		if i == len(subtotals)-1 {
			portion = totalInc.Sub(assigned) // el resto, para suma exacta
		} else {
			portion = totalInc.Mul(s.ex).Div(totalEx).Round(4)
			assigned = assigned.Add(portion)
		}
		part := entity.NewLine(line.Type)
		part.Product = fmt.Sprintf("%s (%s%%)", line.Product, s.rate.String())
		part.ItemNumber = line.ItemNumber
		part.Nature = line.Nature
		part.Meta.Set(entity.MetaStrategySplitSource, line.Product)
		resolveStrategyLine(part, s.rate, portion, decimal.NewFromInt(1))
		split = append(split, part)
	}
	return split
}

// resolveStrategyLine fija tarifa y precios de una porción repartida.
func resolveStrategyLine(line *entity.Line, rate, amountInc, quantity decimal.Decimal) {
	line.Quantity = quantity
	unitInc := amountInc.Div(quantity)
	ex := vat.ExFromInc(unitInc, rate)
	line.UnitPriceInc = &unitInc
	line.UnitPrice = &ex
	line.Vat = entity.VatResolved(rate, entity.VatSourceStrategy)
	line.Meta.Add(entity.MetaFieldsCalculated, "unit-price")
}
