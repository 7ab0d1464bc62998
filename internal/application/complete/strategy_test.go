package complete_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Escenario: descuento de carrito de 10.00 con IVA sin desglose, factura con
// artículos a 21% y 9%. El descuento debe repartirse proporcionalmente a los
// subtotales sin IVA de cada tarifa y los IVA por tarifa deben seguir
// cuadrando con el total.
func TestStrategy_DescuentoSeReparteEntreTarifas(t *testing.T) {
	cfg := defaultSettings()

	discount := entity.NewLine(entity.LineTypeDiscount)
	discount.Product = "Cupón VERANO"
	discount.UnitPriceInc = decp("-10.00")
	discount.Vat = entity.VatDeferStrategy()

	inv := baseInvoice(
		resolvedLine("Camiseta", "1", "100.00", "21"),
		resolvedLine("Libro", "1", "50.00", "9"),
		discount,
	)
	totalInc := dec("165.50") // 121.00 + 54.50 − 10.00
	totalVat := dec("24.07")  // 21.00 + 4.50 − 1.16 (21%) − 0.28 (9%)
	inv.Totals = entity.Totals{AmountInc: &totalInc, AmountVat: &totalVat}

	require.NoError(t, newCompletor(cfg).Complete(inv))

	var parts []*entity.Line
	for _, l := range inv.Lines {
		if l.Type == entity.LineTypeDiscount {
			parts = append(parts, l)
		}
	}
	require.Len(t, parts, 2, "una porción por cada tarifa presente")

	assert.True(t, parts[0].Vat.Rate.Equal(dec("21")))
	assert.True(t, parts[1].Vat.Rate.Equal(dec("9")))
	for _, p := range parts {
		assert.Equal(t, entity.VatSourceStrategy, p.Vat.Source)
		origin, ok := p.Meta.String(entity.MetaStrategySplitSource)
		require.True(t, ok)
		assert.Equal(t, "Cupón VERANO", origin)
	}

	// La suma repartida es exacta: la última porción recibe el resto.
	sumInc := parts[0].AmountInc().Add(parts[1].AmountInc())
	assert.True(t, sumInc.Equal(dec("-10.00")), "el reparto debe sumar exactamente el descuento: %s", sumInc)

	// Reparto proporcional a los subtotales base: 100/150 y 50/150.
	assert.True(t, parts[0].AmountInc().Round(2).Equal(dec("-6.67")),
		"porción al 21%%: %s", parts[0].AmountInc())
	assert.True(t, parts[1].AmountInc().Round(2).Equal(dec("-3.33")),
		"porción al 9%%: %s", parts[1].AmountInc())

	// Los IVA por tarifa siguen cuadrando con el total de la fuente.
	vatSum := decimal.Zero
	for _, l := range inv.Lines {
		if l.DoNotAdd || l.UnitPrice == nil || l.UnitPriceInc == nil {
			continue
		}
		vatSum = vatSum.Add(l.UnitPriceInc.Sub(*l.UnitPrice).Mul(l.Quantity))
	}
	diff := vatSum.Sub(totalVat).Abs()
	assert.True(t, diff.LessThanOrEqual(dec("0.02")),
		"IVA por líneas %s vs total %s", vatSum.StringFixed(2), totalVat.StringFixed(2))

	// Y el total con IVA también.
	assert.True(t, inv.LinesAmountInc().Sub(totalInc).Abs().LessThanOrEqual(dec("0.02")))
}

// Con una sola tarifa positiva no hay reparto: el descuento entero va a ella.
func TestStrategy_UnaTarifaSinReparto(t *testing.T) {
	cfg := defaultSettings()

	discount := entity.NewLine(entity.LineTypeDiscount)
	discount.Product = "Cupón"
	discount.UnitPriceInc = decp("-5.00")
	discount.Vat = entity.VatDeferStrategy()

	inv := baseInvoice(resolvedLine("Camiseta", "1", "100.00", "21"), discount)
	totalInc := dec("116.00")
	inv.Totals = entity.Totals{AmountInc: &totalInc}

	require.NoError(t, newCompletor(cfg).Complete(inv))

	var parts []*entity.Line
	for _, l := range inv.Lines {
		if l.Type == entity.LineTypeDiscount {
			parts = append(parts, l)
		}
	}
	require.Len(t, parts, 1)
	assert.True(t, parts[0].Vat.Rate.Equal(dec("21")))
	assert.True(t, parts[0].AmountInc().Equal(dec("-5.00")))
}

// Sin tarifas positivas sobre las que repartir: el descuento queda exento y
// se registra una advertencia (nunca se descarta en silencio).
func TestStrategy_SinTarifasQuedaExentoConAdvertencia(t *testing.T) {
	cfg := defaultSettings()

	discount := entity.NewLine(entity.LineTypeDiscount)
	discount.Product = "Cupón"
	discount.UnitPriceInc = decp("-5.00")
	discount.Vat = entity.VatDeferStrategy()

	inv := baseInvoice(resolvedLine("Libro exento", "1", "20.00", "0"), discount)
	totalInc := dec("15.00")
	inv.Totals = entity.Totals{AmountInc: &totalInc}

	require.NoError(t, newCompletor(cfg).Complete(inv))

	require.Len(t, inv.Lines, 2)
	assert.True(t, inv.Lines[1].Vat.Exempt())
	assert.True(t, inv.HasWarnings(), "el caso degradado debe dejar rastro")
}
