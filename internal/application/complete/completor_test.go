package complete_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalink/acumulus-bridge/internal/application/complete"
	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func defaultSettings() complete.Settings {
	return complete.Settings{
		NumberSource:         complete.NumberSourceOrder,
		DateSource:           complete.DateSourceOrder,
		ConceptMode:          complete.ConceptNever,
		DefaultCostCenter:    "100",
		DefaultAccountNumber: "NL01BANK0123456789",
		TemplateDue:          "1",
		TemplatePaid:         "2",
		DefaultCountryCode:   "nl",
		DefaultNature:        entity.NatureProduct,
		ReconcileTolerance:   complete.DefaultReconcileTolerance,
	}
}

func newCompletor(cfg complete.Settings) *complete.Completor {
	resolver := vat.NewResolver(
		[]decimal.Decimal{dec("21"), dec("9"), dec("0")},
		dec("0.01"), dec("0.01"),
	)
	return complete.NewCompletor(resolver, cfg, zerolog.Nop())
}

// resolvedLine línea de artículo ya resuelta, para armar facturas de prueba.
func resolvedLine(product string, qty, ex, rate string) *entity.Line {
	l := entity.NewLine(entity.LineTypeItem)
	l.Product = product
	l.Quantity = dec(qty)
	l.UnitPrice = decp(ex)
	l.Vat = entity.VatResolved(dec(rate), entity.VatSourceExact)
	return l
}

func baseInvoice(lines ...*entity.Line) *entity.Invoice {
	inc := decimal.Zero
	for _, l := range lines {
		if l.UnitPrice != nil && l.Vat.Resolved() {
			factor := decimal.NewFromInt(1).Add(l.Vat.Rate.Div(decimal.NewFromInt(100)))
			inc = inc.Add(l.UnitPrice.Mul(factor).Mul(l.Quantity))
		}
	}
	return &entity.Invoice{
		Shop:            "webshop-test",
		SourceType:      entity.SourceOrder,
		SourceReference: "ORD-2026-0042",
		Source: entity.SourceInfo{
			OrderReference:   "ORD-2026-0042",
			InvoiceReference: "F-2026-0007",
			OrderDate:        time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
			PaymentMethod:    "ideal",
		},
		PaymentStatus: entity.PaymentStatusDue,
		Customer:      &entity.Customer{FullName: "Juan Pérez", Email: "juan@example.com"},
		Lines:         lines,
		Totals:        entity.Totals{AmountInc: &inc},
		Currency:      entity.Currency{Code: "EUR", Rate: decimal.NewFromInt(1)},
	}
}

// El número se toma de la referencia configurada y se queda solo con dígitos.
func TestComplete_NumeroDeFactura(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		expected string
	}{
		{"referencia del pedido", complete.NumberSourceOrder, "20260042"},
		{"referencia de la factura de la tienda", complete.NumberSourceInvoice, "20260007"},
		{"lo asigna la contabilidad", complete.NumberSourceAcumulus, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultSettings()
			cfg.NumberSource = tc.source
			inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))

			require.NoError(t, newCompletor(cfg).Complete(inv))
			assert.Equal(t, tc.expected, inv.Number)
		})
	}
}

// Con fuente "invoice" pero sin referencia de factura, retrocede al pedido.
func TestComplete_NumeroRetrocedeAlPedido(t *testing.T) {
	cfg := defaultSettings()
	cfg.NumberSource = complete.NumberSourceInvoice
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.Source.InvoiceReference = ""

	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Equal(t, "20260042", inv.Number)
}

// Enum de configuración no reconocido: ConfigurationError antes de mutar nada.
func TestComplete_EnumInvalidoFallaRapido(t *testing.T) {
	cfg := defaultSettings()
	cfg.NumberSource = "lo-que-sea"
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))

	err := newCompletor(cfg).Complete(inv)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	var ce *domain.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "invoice.number_source", ce.Setting)
}

// La fecha de emisión no sobrescribe una ya establecida; con "transfer" se
// deja sin establecer.
func TestComplete_FechaDeEmision(t *testing.T) {
	preset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cfg := defaultSettings()
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.IssueDate = &preset
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.True(t, inv.IssueDate.Equal(preset), "una fecha ya establecida no debe sobrescribirse")

	cfg.DateSource = complete.DateSourceTransfer
	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Nil(t, inv.IssueDate, "con transfer la fecha queda sin establecer")

	cfg.DateSource = complete.DateSourceOrder
	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	require.NoError(t, newCompletor(cfg).Complete(inv))
	require.NotNil(t, inv.IssueDate)
	assert.True(t, inv.IssueDate.Equal(inv.Source.OrderDate))
}

// Info contable: default más override por método de pago.
func TestComplete_InfoContablePorMetodoDePago(t *testing.T) {
	cfg := defaultSettings()
	cfg.AccountNumberByPaymentMethod = map[string]string{"paypal": "NL99PAYP0000000001"}
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.Source.PaymentMethod = "paypal"

	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Equal(t, "NL99PAYP0000000001", inv.AccountNumber)
	assert.Equal(t, "100", inv.CostCenter, "el centro de costo usa el default")
}

// Plantilla según estado de pago, con retroceso cuando no hay plantilla de pagadas.
func TestComplete_Plantilla(t *testing.T) {
	cfg := defaultSettings()
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.PaymentStatus = entity.PaymentStatusPaid
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Equal(t, "2", inv.Template)

	cfg.TemplatePaid = ""
	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.PaymentStatus = entity.PaymentStatusPaid
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Equal(t, "1", inv.Template)
}

// Normalización de texto multilínea: toda variante de salto de línea pasa a
// la secuencia literal de dos caracteres.
func TestComplete_TextoMultilinea(t *testing.T) {
	cfg := defaultSettings()
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.Description = "línea uno\r\nlínea dos\rlínea tres\nlínea cuatro"

	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Equal(t, `línea uno\nlínea dos\nlínea tres\nlínea cuatro`, inv.Description)
	assert.NotContains(t, inv.Description, "\n", "no deben quedar saltos reales")
}

// Concept corre la última: on-warnings marca borrador solo si alguna fase
// registró advertencias; un Concept ya establecido no se toca.
func TestComplete_ConceptSegunAdvertencias(t *testing.T) {
	cfg := defaultSettings()
	cfg.ConceptMode = complete.ConceptOnWarnings

	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	require.NoError(t, newCompletor(cfg).Complete(inv))
	require.NotNil(t, inv.Concept)
	assert.False(t, *inv.Concept, "sin advertencias no hay borrador")

	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	badTotal := dec("999.99") // descuadre imposible de corregir → advertencia
	inv.Totals.AmountInc = &badTotal
	require.NoError(t, newCompletor(cfg).Complete(inv))
	require.NotNil(t, inv.Concept)
	assert.True(t, *inv.Concept, "con advertencias debe marcarse borrador")

	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	preset := false
	inv.Concept = &preset
	inv.Totals.AmountInc = &badTotal
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.False(t, *inv.Concept, "un Concept ya establecido no se sobrescribe")
}

// Sección EmailAsPdf: solo con la función habilitada y cliente con email.
func TestComplete_EmailAsPdf(t *testing.T) {
	cfg := defaultSettings()
	cfg.EmailAsPdfEnabled = true
	cfg.EmailFrom = "facturas@webshop-test.nl"
	cfg.EmailSubject = "Factura [#]"
	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))

	require.NoError(t, newCompletor(cfg).Complete(inv))
	require.NotNil(t, inv.EmailAsPdf)
	assert.Equal(t, "juan@example.com", inv.EmailAsPdf.EmailTo)
	assert.Equal(t, "Factura 20260042", inv.EmailAsPdf.Subject)

	inv = baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"))
	inv.Customer.Email = ""
	require.NoError(t, newCompletor(cfg).Complete(inv))
	assert.Nil(t, inv.EmailAsPdf, "sin email del cliente no hay sección")
}

// Idempotencia: ejecutar la secuencia dos veces sobre una factura ya
// completada no cambia ningún campo ya establecido.
func TestComplete_Idempotencia(t *testing.T) {
	cfg := defaultSettings()
	cfg.ConceptMode = complete.ConceptOnWarnings
	inv := baseInvoice(
		resolvedLine("Camiseta", "2", "10.00", "21"),
		resolvedLine("Libro", "1", "20.00", "9"),
	)
	inv.Description = "pedido\nweb"

	c := newCompletor(cfg)
	require.NoError(t, c.Complete(inv))

	number := inv.Number
	issueDate := *inv.IssueDate
	template := inv.Template
	concept := *inv.Concept
	description := inv.Description
	lineCount := len(inv.Lines)

	require.NoError(t, c.Complete(inv))

	assert.Equal(t, number, inv.Number)
	assert.True(t, inv.IssueDate.Equal(issueDate))
	assert.Equal(t, template, inv.Template)
	assert.Equal(t, concept, *inv.Concept)
	assert.Equal(t, description, inv.Description, "la normalización de texto debe ser idempotente")
	assert.Equal(t, lineCount, len(inv.Lines))
}

// El completor resuelve una línea diferida cuando la factura tiene una única
// tarifa positiva.
func TestComplete_LineaDiferidaConTarifaUnica(t *testing.T) {
	cfg := defaultSettings()
	deferred := entity.NewLine(entity.LineTypeShipping)
	deferred.Product = "Envío"
	deferred.UnitPriceInc = decp("6.05")
	deferred.Vat = entity.VatDeferCompletor()

	inv := baseInvoice(resolvedLine("Camiseta", "1", "10.00", "21"), deferred)
	total := dec("18.15") // 12.10 + 6.05
	inv.Totals.AmountInc = &total

	require.NoError(t, newCompletor(cfg).Complete(inv))

	require.True(t, deferred.Vat.Resolved(), "la única tarifa positiva debe aplicarse")
	assert.True(t, deferred.Vat.Rate.Equal(dec("21")))
	assert.Equal(t, entity.VatSourceCompletor, deferred.Vat.Source)
	require.NotNil(t, deferred.UnitPrice)
	assert.True(t, deferred.UnitPrice.Equal(dec("5")), "la base debe derivarse del precio con IVA")
}

// Una factura cuya única tarifa resuelta es 0% también determina la línea
// diferida: todas las líneas coinciden, no hay ambigüedad que abortar.
func TestComplete_LineaDiferidaConTarifaCeroUnica(t *testing.T) {
	cfg := defaultSettings()
	deferred := entity.NewLine(entity.LineTypeShipping)
	deferred.Product = "Envío"
	deferred.UnitPriceInc = decp("4.00")
	deferred.Vat = entity.VatDeferCompletor()

	inv := baseInvoice(resolvedLine("Libro escolar", "1", "10.00", "0"), deferred)
	total := dec("14.00")
	inv.Totals.AmountInc = &total

	require.NoError(t, newCompletor(cfg).Complete(inv))

	require.True(t, deferred.Vat.Resolved(), "la tarifa única de la factura debe aplicarse aunque sea 0%")
	assert.True(t, deferred.Vat.Rate.IsZero())
	assert.Equal(t, entity.VatSourceCompletor, deferred.Vat.Source)
	assert.NotContains(t, warningCodes(inv), "reconciliacion-descuadre")
}

// Con varias tarifas y sin evidencia, la línea no puede resolverse: error duro.
func TestComplete_LineaIrresolubleAborta(t *testing.T) {
	cfg := defaultSettings()
	deferred := entity.NewLine(entity.LineTypeOther)
	deferred.Product = "Cargo misterioso"
	deferred.UnitPriceInc = decp("5.00")
	deferred.Vat = entity.VatDeferCompletor()

	inv := baseInvoice(
		resolvedLine("Camiseta", "1", "10.00", "21"),
		resolvedLine("Libro", "1", "20.00", "9"),
		deferred,
	)

	err := newCompletor(cfg).Complete(inv)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedVat)
	var uve *domain.UnresolvedVatRateError
	require.ErrorAs(t, err, &uve)
	assert.Equal(t, "Cargo misterioso", uve.Product)
	assert.Equal(t, "ORD-2026-0042", uve.SourceRef)
}
