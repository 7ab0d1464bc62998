package complete

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// metaDiscountTolerance tolerancia de coma flotante para comparar los
// totales de descuento registrados en metadata.
var metaDiscountTolerance = decimal.RequireFromString("0.01")

// checkTotalsSum verifica que la suma de las líneas completadas coincida con
// los totales independientes de la fuente. Corre después de la normalización
// de moneda: así los totales que llegaron en moneda extranjera también se
// comparan, ya convertidos a la moneda de referencia de las líneas. Un
// descuadre es una advertencia, nunca un error duro: la factura puede
// enviarse igualmente, posiblemente como borrador.
func (c *Completor) checkTotalsSum(inv *entity.Invoice) {
	// DoConvert todavía activo = la conversión falló (tasa inválida); los
	// totales siguen en otra moneda y no hay comparación posible.
	if inv.Currency.DoConvert {
		return
	}
	if inv.Totals.AmountInc == nil {
		inv.AddWarning("totales-incompletos", "la fuente no reporta monto total con IVA; reconciliación omitida")
		return
	}

	tolerance := c.cfg.ReconcileTolerance
	if tolerance.IsZero() {
		tolerance = DefaultReconcileTolerance
	}
	lineSum := inv.LinesAmountInc()
	diff := lineSum.Sub(*inv.Totals.AmountInc).Abs()
	if diff.GreaterThan(tolerance) {
		inv.AddWarning("reconciliacion-descuadre", fmt.Sprintf(
			"suma de líneas %s no coincide con el total de la fuente %s (dif %s, tolerancia %s)",
			lineSum.StringFixed(2), inv.Totals.AmountInc.StringFixed(2),
			diff.StringFixed(2), tolerance.String()))
	}
}

// correctShippingDiscount compara el descuento registrado en metadata de
// línea contra el monto de las líneas tipadas como descuento y ajusta la
// línea de envío por exactamente la diferencia. Las líneas de descuento son
// negativas y la metadata registra magnitudes: se comparan valores absolutos.
func (c *Completor) correctShippingDiscount(inv *entity.Invoice) {
	discountMetaInc := decimal.Zero
	discountLinesInc := decimal.Zero
	hasMeta := false
	var shipping *entity.Line
	for _, l := range inv.Lines {
		if d, ok := l.Meta.Decimal(entity.MetaLineDiscountInc); ok {
			hasMeta = true
			discountMetaInc = discountMetaInc.Add(d.Abs())
		}
		if l.Type == entity.LineTypeDiscount && !l.DoNotAdd {
			discountLinesInc = discountLinesInc.Add(l.AmountInc().Abs())
		}
		if l.Type == entity.LineTypeShipping && shipping == nil {
			shipping = l
		}
	}
	// Sin metadata de descuento no hay nada que contrastar.
	if !hasMeta {
		return
	}

	diff := discountMetaInc.Sub(discountLinesInc)
	if diff.Abs().LessThanOrEqual(metaDiscountTolerance) {
		return
	}
	if shipping == nil {
		inv.AddWarning("descuento-sin-linea-envio", fmt.Sprintf(
			"descuento en metadata %s difiere de las líneas de descuento %s y no hay línea de envío que corregir",
			discountMetaInc.StringFixed(2), discountLinesInc.StringFixed(2)))
		return
	}

	current := decimal.Zero
	if d, ok := shipping.Meta.Decimal(entity.MetaLineDiscountInc); ok {
		current = d
	}
	shipping.Meta.Set(entity.MetaLineDiscountInc, current.Add(diff))
	inv.AddWarning("descuento-envio-corregido", fmt.Sprintf(
		"metadata de descuento de la línea de envío ajustada en %s", diff.StringFixed(2)))
}
