package complete_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Escenario: pedido en GBP con tasa 1.15 hacia la moneda de referencia. Solo
// los totales se convierten (las líneas ya vienen en EUR) y el miembro
// faltante se deriva después de convertir.
func TestCurrency_ConversionDeTotales(t *testing.T) {
	inv := baseInvoice(resolvedLine("Camiseta", "1", "115.00", "21"))
	inv.Totals = entity.Totals{AmountEx: decp("100.00"), AmountVat: decp("21.00")}
	inv.Currency = entity.Currency{Code: "GBP", Rate: dec("1.15"), DoConvert: true}

	require.NoError(t, newCompletor(defaultSettings()).Complete(inv))

	require.NotNil(t, inv.Totals.AmountEx)
	require.NotNil(t, inv.Totals.AmountVat)
	require.NotNil(t, inv.Totals.AmountInc)
	assert.True(t, inv.Totals.AmountEx.Equal(dec("115.00")), "ex: %s", inv.Totals.AmountEx)
	assert.True(t, inv.Totals.AmountVat.Equal(dec("24.15")), "vat: %s", inv.Totals.AmountVat)
	assert.True(t, inv.Totals.AmountInc.Equal(dec("139.15")), "inc: %s", inv.Totals.AmountInc)

	// La moneda queda normalizada a la de referencia.
	assert.Equal(t, "EUR", inv.Currency.Code)
	assert.True(t, inv.Currency.Rate.Equal(dec("1")))
	assert.False(t, inv.Currency.DoConvert)

	// Las líneas no se tocan: ya estaban en la moneda de referencia, y con
	// los totales convertidos la reconciliación cuadra sin advertencias.
	assert.True(t, inv.Lines[0].UnitPrice.Equal(dec("115.00")))
	assert.NotContains(t, warningCodes(inv), "reconciliacion-descuadre")
}

// Sin conversión solicitada los totales quedan como vinieron.
func TestCurrency_SinConversionNoToca(t *testing.T) {
	inv := baseInvoice(resolvedLine("Camiseta", "1", "100.00", "21"))
	total := dec("121.00")
	inv.Totals = entity.Totals{AmountInc: &total}
	inv.Currency = entity.Currency{Code: "USD", Rate: dec("0.92")}

	require.NoError(t, newCompletor(defaultSettings()).Complete(inv))
	assert.True(t, inv.Totals.AmountInc.Equal(dec("121.00")))
	assert.Equal(t, "USD", inv.Currency.Code)
}

// Conversión solicitada sin tasa válida: advertencia y totales intactos.
func TestCurrency_TasaInvalidaAdvierte(t *testing.T) {
	inv := baseInvoice(resolvedLine("Camiseta", "1", "100.00", "21"))
	total := dec("121.00")
	inv.Totals = entity.Totals{AmountInc: &total}
	inv.Currency = entity.Currency{Code: "GBP", Rate: dec("0"), DoConvert: true}

	require.NoError(t, newCompletor(defaultSettings()).Complete(inv))
	assert.Contains(t, warningCodes(inv), "moneda-sin-tasa")
	assert.True(t, inv.Totals.AmountInc.Equal(dec("121.00")))
	assert.True(t, inv.Currency.DoConvert, "queda pendiente, no se finge convertida")
}

// Código de moneda que no es ISO 4217: advertencia, el resto sigue.
func TestCurrency_CodigoDesconocido(t *testing.T) {
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.Currency = entity.Currency{Code: "XYZ", Rate: dec("1")}

	require.NoError(t, newCompletor(defaultSettings()).Complete(inv))
	assert.Contains(t, warningCodes(inv), "moneda-desconocida")
}
