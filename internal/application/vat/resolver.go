// Package vat determina la tarifa de IVA de una línea a partir de evidencia
// numérica parcial: con dos miembros del triple {base, base+IVA, IVA} y las
// tolerancias declaradas por la fuente se calcula un rango de tarifas
// posibles que se intersecta contra las tarifas legales vigentes.
package vat

import (
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// ClassRate tarifa devuelta por la consulta fiscal de la tienda.
type ClassRate struct {
	Rate  decimal.Decimal
	Label string
}

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Resolver resuelve tarifas de IVA contra el conjunto de tarifas legales de
// la jurisdicción. PriceTolerance y VatTolerance son las tolerancias por
// defecto cuando la fuente no declara la suya (precisión de sus redondeos).
type Resolver struct {
	rates          []decimal.Decimal
	priceTolerance decimal.Decimal
	vatTolerance   decimal.Decimal
}

// NewResolver crea el resolutor. rates son las tarifas legales vigentes en
// porcentaje (ej. 21, 9, 0).
func NewResolver(rates []decimal.Decimal, priceTolerance, vatTolerance decimal.Decimal) *Resolver {
	return &Resolver{rates: rates, priceTolerance: priceTolerance, vatTolerance: vatTolerance}
}

// Rates devuelve las tarifas legales conocidas.
func (r *Resolver) Rates() []decimal.Decimal { return r.rates }

// FromAmounts determina la tarifa a partir de base (sin IVA) y monto de IVA.
// priceTol y vatTol son las tolerancias declaradas por la fuente; nil usa las
// del resolutor. El signo se ignora para el cálculo del rango (las notas de
// crédito traen montos negativos con signo consistente).
//
// Resultado:
//   - base ≈ 0            → línea exenta de facto (tarifa 0, fuente exact-0)
//   - una tarifa en rango → resuelta (fuente calculated)
//   - varias en rango     → estado de rango, refina el completor
//   - ninguna en rango    → se duplica la tolerancia una única vez; si sigue
//     sin haber tarifa única, se difiere al completor
func (r *Resolver) FromAmounts(ex, vatAmount decimal.Decimal, priceTol, vatTol *decimal.Decimal) entity.VatRateState {
	pt := r.priceTolerance
	if priceTol != nil {
		pt = *priceTol
	}
	vt := r.vatTolerance
	if vatTol != nil {
		vt = *vatTol
	}

	exAbs := ex.Abs()
	vatAbs := vatAmount.Abs()

	// Base ~0: no hay clase de IVA asignada; la línea se trata como tarifa 0
	// exacta, nunca como estado diferido.
	if exAbs.LessThanOrEqual(pt) {
		return entity.VatRateState{Kind: entity.VatStateResolved, Rate: decimal.Zero, Source: entity.VatSourceExactZero}
	}
	if vatAbs.LessThanOrEqual(vt) {
		return entity.VatRateState{Kind: entity.VatStateResolved, Rate: decimal.Zero, Source: entity.VatSourceExactZero}
	}

	state, ok := r.rangeMatch(exAbs, vatAbs, pt, vt)
	if ok {
		return state
	}
	// Retroceso documentado: ampliar la tolerancia una única vez.
	state, ok = r.rangeMatch(exAbs, vatAbs, pt.Mul(two), vt.Mul(two))
	if ok {
		return state
	}
	return entity.VatDeferCompletor()
}

// rangeMatch calcula el rango [ (vat-vt)/(ex+pt), (vat+vt)/(ex-pt) ] × 100 y
// lo intersecta contra las tarifas legales. ok=false cuando ninguna tarifa
// cae en el rango.
func (r *Resolver) rangeMatch(ex, vatAmount, pt, vt decimal.Decimal) (entity.VatRateState, bool) {
	min := vatAmount.Sub(vt).Div(ex.Add(pt)).Mul(hundred)
	var max decimal.Decimal
	if ex.LessThanOrEqual(pt) {
		// Divisor no positivo: rango sin cota superior útil; tomamos la mayor tarifa legal.
		max = maxRate(r.rates)
	} else {
		max = vatAmount.Add(vt).Div(ex.Sub(pt)).Mul(hundred)
	}

	matches := r.RatesIn(min, max)
	switch len(matches) {
	case 0:
		return entity.VatRateState{}, false
	case 1:
		return entity.VatRateState{Kind: entity.VatStateResolved, Rate: matches[0], Source: entity.VatSourceRange}, true
	default:
		return entity.VatRange(min, max), true
	}
}

// FromClassRates determina la tarifa desde el resultado de la consulta fiscal
// (clase de impuesto de la tienda). Más de una tarifa para lo que debería ser
// una clase única es un resultado degradado válido: se difiere al completor.
func (r *Resolver) FromClassRates(rates []ClassRate) entity.VatRateState {
	if len(rates) == 1 {
		return entity.VatResolved(rates[0].Rate, entity.VatSourceExact)
	}
	return entity.VatDeferCompletor()
}

// RatesIn devuelve las tarifas legales dentro del rango [min, max] en
// porcentaje, en el orden configurado.
func (r *Resolver) RatesIn(min, max decimal.Decimal) []decimal.Decimal {
	var out []decimal.Decimal
	for _, rate := range r.rates {
		if rate.GreaterThanOrEqual(min) && rate.LessThanOrEqual(max) {
			out = append(out, rate)
		}
	}
	return out
}

// VatAmount calcula el IVA de un precio base a una tarifa en porcentaje.
func VatAmount(ex, rate decimal.Decimal) decimal.Decimal {
	return ex.Mul(rate).Div(hundred)
}

// ExFromInc deriva la base de un monto con IVA a una tarifa en porcentaje.
func ExFromInc(inc, rate decimal.Decimal) decimal.Decimal {
	return inc.Div(one.Add(rate.Div(hundred)))
}

func maxRate(rates []decimal.Decimal) decimal.Decimal {
	max := decimal.Zero
	for _, r := range rates {
		if r.GreaterThan(max) {
			max = r
		}
	}
	return max
}
