package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalink/acumulus-bridge/internal/application/billing"
	"github.com/facturalink/acumulus-bridge/internal/application/complete"
	"github.com/facturalink/acumulus-bridge/internal/application/dto"
	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Doubles
// ──────────────────────────────────────────────────────────────────────────────

// memEntryRepo repositorio en memoria clavado por (shop, type, reference).
type memEntryRepo struct {
	entries map[string]*entity.AcumulusEntry
	failing bool
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: make(map[string]*entity.AcumulusEntry)}
}

func (r *memEntryRepo) key(shop, st, ref string) string { return shop + "|" + st + "|" + ref }

func (r *memEntryRepo) Upsert(_ context.Context, entry *entity.AcumulusEntry) error {
	if r.failing {
		return errors.New("conexión perdida")
	}
	k := r.key(entry.Shop, entry.SourceType, entry.SourceReference)
	if prev, ok := r.entries[k]; ok {
		entry.ID = prev.ID
		entry.CreatedAt = prev.CreatedAt
	}
	r.entries[k] = entry
	return nil
}

func (r *memEntryRepo) GetBySource(_ context.Context, shop, st, ref string) (*entity.AcumulusEntry, error) {
	if r.failing {
		return nil, errors.New("conexión perdida")
	}
	return r.entries[r.key(shop, st, ref)], nil
}

func newUseCase(repo *memEntryRepo) *billing.ConvertInvoiceUseCase {
	resolver := vat.NewResolver(
		[]decimal.Decimal{decimal.NewFromInt(21), decimal.NewFromInt(9), decimal.NewFromInt(0)},
		decimal.RequireFromString("0.0051"), decimal.RequireFromString("0.0051"),
	)
	settings := complete.Settings{
		NumberSource:       complete.NumberSourceOrder,
		DateSource:         complete.DateSourceOrder,
		ConceptMode:        complete.ConceptOnWarnings,
		DefaultCountryCode: "nl",
		DefaultNature:      "Product",
	}
	if repo == nil {
		// Interface nil de verdad, no un puntero nil envuelto.
		return billing.NewConvertInvoiceUseCase(resolver, settings, nil, nil, nil, zerolog.Nop())
	}
	return billing.NewConvertInvoiceUseCase(resolver, settings, nil, nil, repo, zerolog.Nop())
}

func dec(s string) decimal.Decimal   { return decimal.RequireFromString(s) }
func decp(s string) *decimal.Decimal { d := dec(s); return &d }

func baseRequest() *dto.ConvertInvoiceRequest {
	return &dto.ConvertInvoiceRequest{
		Shop:       "tienda-uno",
		SourceType: "order",
		Reference:  "ORD-100",
		OrderDate:  "2026-03-10",
		Customer:   dto.CustomerPayload{FullName: "Ana López", Email: "ana@example.com"},
		Items: []dto.ItemPayload{
			{Product: "Libro", Quantity: dec("2"), UnitPriceEx: decp("20.00"), VatAmount: decp("1.80")},
		},
		Totals:   dto.TotalsPayload{AmountInc: decp("43.60")},
		Currency: dto.CurrencyPayload{Code: "EUR", Rate: dec("1")},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Convert
// ──────────────────────────────────────────────────────────────────────────────

// La conversión exitosa registra la entrada con los totales finales.
func TestConvert_RegistraLaConversion(t *testing.T) {
	repo := newMemEntryRepo()
	uc := newUseCase(repo)

	resp, err := uc.Convert(context.Background(), baseRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Warnings)

	entry, err := repo.GetBySource(context.Background(), "tienda-uno", "order", "ORD-100")
	require.NoError(t, err)
	require.NotNil(t, entry, "la conversión debe quedar registrada")
	assert.Equal(t, resp.Number, entry.InvoiceNumber)
	assert.True(t, entry.AmountInc.Equal(dec("43.60")),
		"amount_inc registrado: %s", entry.AmountInc)
	assert.NotEmpty(t, entry.ID)
}

// Reconvertir la misma fuente actualiza el registro, no crea otro.
func TestConvert_ReconversionActualizaElRegistro(t *testing.T) {
	repo := newMemEntryRepo()
	uc := newUseCase(repo)

	_, err := uc.Convert(context.Background(), baseRequest())
	require.NoError(t, err)
	_, err = uc.Convert(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Len(t, repo.entries, 1)
}

// El registro fallido degrada a advertencia: la factura convertida es válida
// y se entrega igual.
func TestConvert_RegistroFallidoNoInvalida(t *testing.T) {
	repo := newMemEntryRepo()
	repo.failing = true
	uc := newUseCase(repo)

	resp, err := uc.Convert(context.Background(), baseRequest())
	require.NoError(t, err, "el fallo de persistencia no debe abortar la conversión")

	codes := make([]string, 0, len(resp.Warnings))
	for _, w := range resp.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "registro-fallido")
}

// Artículo sin producto: dato obligatorio ausente, error duro tipado.
func TestConvert_DatoObligatorioAusente(t *testing.T) {
	uc := newUseCase(newMemEntryRepo())
	req := baseRequest()
	req.Items[0].Product = ""

	_, err := uc.Convert(context.Background(), req)
	var missing *domain.MissingDataError
	require.ErrorAs(t, err, &missing)
}

// Un vale con monto cero produce una línea marcada que no llega a la salida.
func TestConvert_DescartaLineasMarcadas(t *testing.T) {
	uc := newUseCase(newMemEntryRepo())
	req := baseRequest()
	req.Vouchers = []dto.ChargePayload{{Description: "Vale regalo", AmountInc: dec("0")}}

	resp, err := uc.Convert(context.Background(), req)
	require.NoError(t, err)
	for _, l := range resp.Lines {
		assert.NotEqual(t, "Vale regalo", l.Product, "la línea marcada no debe entregarse")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// GetEntry / puertos opcionales
// ──────────────────────────────────────────────────────────────────────────────

// Sin repositorio configurado GetEntry responde no-encontrado, no panic.
func TestGetEntry_SinRepositorio(t *testing.T) {
	uc := newUseCase(nil)
	_, err := uc.GetEntry(context.Background(), "tienda-uno", "order", "ORD-100")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Fuente nunca convertida → no-encontrado.
func TestGetEntry_FuenteDesconocida(t *testing.T) {
	uc := newUseCase(newMemEntryRepo())
	_, err := uc.GetEntry(context.Background(), "tienda-uno", "order", "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Sin constructor de sobre configurado, ConvertEnvelope falla con error de
// configuración en lugar de panic.
func TestConvertEnvelope_SinConstructor(t *testing.T) {
	uc := newUseCase(newMemEntryRepo())
	_, err := uc.ConvertEnvelope(context.Background(), baseRequest())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// Sin generador PDF configurado, PreviewPDF falla con error de configuración.
func TestPreviewPDF_SinGenerador(t *testing.T) {
	uc := newUseCase(newMemEntryRepo())
	_, err := uc.PreviewPDF(context.Background(), baseRequest())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
