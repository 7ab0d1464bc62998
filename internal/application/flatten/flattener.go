// Package flatten aplana el árbol de líneas recolectado: decide por cada
// padre si las hijas (componentes de bundle, variantes, opciones) se funden
// en él o se promueven a líneas planas, sin contabilizar dos veces el mismo
// monto y conservando el máximo detalle descriptivo.
package flatten

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Flattener aplana árboles de líneas. Sin estado; una instancia sirve para
// todo el proceso.
type Flattener struct{}

// NewFlattener construye el aplanador.
func NewFlattener() *Flattener { return &Flattener{} }

// Flatten devuelve la lista plana y ordenada de líneas, resolviendo cada
// subárbol según las reglas siguientes:
//
//  1. Padre con exactamente una hija con el mismo número de artículo, la misma
//     cantidad y precio unitario cero: la hija es una anotación duplicada del
//     padre (peculiaridad de productos configurables de algunas plataformas);
//     se descarta como línea y su descripción se anexa a la del padre.
//  2. Todas las hijas comparten una única tarifa de IVA compatible con la del
//     padre, y el padre lleva precio distinto de cero: el precio/IVA queda
//     solo en el padre; las hijas se reducen a sublíneas descriptivas de
//     precio cero.
//  3. En cualquier otro caso el precio/IVA queda repartido en las hijas y el
//     padre pasa a ser una etiqueta de agrupación de precio cero.
func (f *Flattener) Flatten(lines []*entity.Line) []*entity.Line {
	out := make([]*entity.Line, 0, len(lines))
	for _, parent := range lines {
		out = append(out, f.flattenOne(parent)...)
	}
	return out
}

func (f *Flattener) flattenOne(parent *entity.Line) []*entity.Line {
	if len(parent.Children) == 0 {
		return []*entity.Line{parent}
	}

	// Regla 1: hija duplicada del padre. No se recursa más en este padre.
	if len(parent.Children) == 1 && isDuplicateChild(parent, parent.Children[0]) {
		child := parent.Children[0]
		if child.Product != "" && child.Product != parent.Product {
			parent.Product = fmt.Sprintf("%s (%s)", parent.Product, child.Product)
		}
		parent.Meta.Set(entity.MetaChildrenMerged, 1)
		parent.Children = nil
		return []*entity.Line{parent}
	}

	childRates := distinctResolvedRates(parent.Children)

	// Regla 2: una única tarifa entre las hijas, compatible con el padre, y
	// el padre lleva precio: el monto se queda en el padre.
	if len(childRates) <= 1 && parentHasPrice(parent) && ratesCompatible(parent, childRates) {
		flat := []*entity.Line{parent}
		for _, child := range parent.Children {
			child.StripPrice()
			if parent.Vat.Resolved() {
				child.Vat = entity.VatResolved(parent.Vat.Rate, entity.VatSourceParent)
			}
			flat = append(flat, f.flattenOne(child)...)
		}
		parent.Meta.Set(entity.MetaChildrenMerged, len(parent.Children))
		parent.Children = nil
		return flat
	}

	// Regla 3: el monto vive en las hijas; el padre queda como etiqueta.
	parent.StripPrice()
	parent.Vat = entity.VatExempt()
	flat := []*entity.Line{parent}
	for _, child := range parent.Children {
		flat = append(flat, f.flattenOne(child)...)
	}
	parent.Children = nil
	return flat
}

// isDuplicateChild mismo número de artículo, misma cantidad y precio cero en
// ambos miembros: una hija que trae monto propio (aunque solo con IVA) no es
// una anotación duplicada.
func isDuplicateChild(parent, child *entity.Line) bool {
	if child.ItemNumber != parent.ItemNumber || !child.Quantity.Equal(parent.Quantity) {
		return false
	}
	if child.UnitPrice != nil && !child.UnitPrice.IsZero() {
		return false
	}
	return child.UnitPriceInc == nil || child.UnitPriceInc.IsZero()
}

// distinctResolvedRates tarifas distintas, resueltas y no exentas, entre las hijas.
func distinctResolvedRates(children []*entity.Line) []decimal.Decimal {
	var rates []decimal.Decimal
	for _, c := range children {
		if !c.Vat.Resolved() || c.Vat.Exempt() {
			continue
		}
		found := false
		for _, r := range rates {
			if r.Equal(c.Vat.Rate) {
				found = true
				break
			}
		}
		if !found {
			rates = append(rates, c.Vat.Rate)
		}
	}
	return rates
}

// ratesCompatible la tarifa única de las hijas (si existe) coincide con la del
// padre, o es cero/vacía.
func ratesCompatible(parent *entity.Line, childRates []decimal.Decimal) bool {
	if len(childRates) == 0 {
		return true
	}
	rate := childRates[0]
	if rate.IsZero() {
		return true
	}
	return parent.Vat.Resolved() && parent.Vat.Rate.Equal(rate)
}

// parentHasPrice el padre lleva información de precio distinta de cero.
func parentHasPrice(l *entity.Line) bool {
	if l.UnitPrice != nil && !l.UnitPrice.IsZero() {
		return true
	}
	return l.UnitPriceInc != nil && !l.UnitPriceInc.IsZero()
}
