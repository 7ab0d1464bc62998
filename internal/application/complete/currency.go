package complete

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// referenceCurrency moneda de referencia de la contabilidad.
const referenceCurrency = "EUR"

// normalizeCurrency convierte los totales de la factura a la moneda de
// referencia cuando la fuente los reporta en otra. Solo se convierten los
// totales: las líneas ya vienen en la moneda de referencia en los datos de
// origen (peculiaridad documentada de las fuentes, no un bug), por eso esta
// fase corre después de la recolección de líneas.
func (c *Completor) normalizeCurrency(inv *entity.Invoice) {
	cur := &inv.Currency
	if cur.Code != "" {
		if _, err := currency.ParseISO(cur.Code); err != nil {
			inv.AddWarning("moneda-desconocida", fmt.Sprintf("código de moneda %q no es ISO 4217", cur.Code))
		}
	}
	if !cur.DoConvert {
		return
	}
	if cur.Rate.LessThanOrEqual(decimal.Zero) {
		inv.AddWarning("moneda-sin-tasa", fmt.Sprintf(
			"conversión de %s solicitada sin tasa válida (%s); totales sin convertir", cur.Code, cur.Rate))
		return
	}

	convert := func(d *decimal.Decimal) *decimal.Decimal {
		if d == nil {
			return nil
		}
		v := d.Mul(cur.Rate)
		return &v
	}
	inv.Totals.AmountInc = convert(inv.Totals.AmountInc)
	inv.Totals.AmountVat = convert(inv.Totals.AmountVat)
	inv.Totals.AmountEx = convert(inv.Totals.AmountEx)
	inv.Totals.Complete()

	cur.Code = referenceCurrency
	cur.Rate = decimal.NewFromInt(1)
	cur.DoConvert = false
}
