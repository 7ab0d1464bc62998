// Package billing orquesta la conversión completa: recolección desde la
// fuente, aplanado del árbol de líneas, completado con configuración y
// registro de la conversión. Es la única pieza que conoce el orden de las
// fases; cada fase por separado no sabe de las demás.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/application/collect"
	"github.com/facturalink/acumulus-bridge/internal/application/complete"
	"github.com/facturalink/acumulus-bridge/internal/application/dto"
	"github.com/facturalink/acumulus-bridge/internal/application/flatten"
	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
	"github.com/facturalink/acumulus-bridge/internal/domain/repository"
)

// ConvertInvoiceUseCase convierte un pedido o nota de crédito de tienda en la
// factura normalizada y registra la conversión.
type ConvertInvoiceUseCase struct {
	resolver  *vat.Resolver
	flattener *flatten.Flattener
	completor *complete.Completor
	envelope  EnvelopeBuilder
	preview   PreviewRenderer
	entryRepo repository.EntryRepository // nil = sin persistencia (modo sin base de datos)
	log       zerolog.Logger
}

// NewConvertInvoiceUseCase construye el caso de uso.
func NewConvertInvoiceUseCase(
	resolver *vat.Resolver,
	completorCfg complete.Settings,
	envelope EnvelopeBuilder,
	preview PreviewRenderer,
	entryRepo repository.EntryRepository,
	log zerolog.Logger,
) *ConvertInvoiceUseCase {
	return &ConvertInvoiceUseCase{
		resolver:  resolver,
		flattener: flatten.NewFlattener(),
		completor: complete.NewCompletor(resolver, completorCfg, log),
		envelope:  envelope,
		preview:   preview,
		entryRepo: entryRepo,
		log:       log,
	}
}

// Convert ejecuta el pipeline completo sobre el request. Los errores duros
// (datos obligatorios ausentes, tarifa irresoluble, configuración inválida)
// abortan la conversión; las degradaciones blandas viajan como advertencias
// dentro de la respuesta.
func (uc *ConvertInvoiceUseCase) Convert(ctx context.Context, req *dto.ConvertInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.run(req)
	if err != nil {
		return nil, err
	}

	if err := uc.recordEntry(ctx, inv); err != nil {
		// La conversión ya es válida; el registro fallido no la invalida.
		uc.log.Error().Err(err).
			Str("shop", inv.Shop).
			Str("source", inv.SourceReference).
			Msg("no se pudo registrar la conversión")
		inv.AddWarning("registro-fallido", "la conversión no quedó registrada en la base de datos")
	}

	uc.log.Info().
		Str("shop", inv.Shop).
		Str("source", inv.SourceReference).
		Int("lines", len(inv.Lines)).
		Int("warnings", len(inv.Warnings)).
		Msg("factura convertida")
	return toInvoiceResponse(inv), nil
}

// ConvertEnvelope convierte y serializa directamente al sobre XML del
// servicio de contabilidad. Registra la conversión igual que Convert.
func (uc *ConvertInvoiceUseCase) ConvertEnvelope(ctx context.Context, req *dto.ConvertInvoiceRequest) ([]byte, error) {
	if uc.envelope == nil {
		return nil, fmt.Errorf("%w: serialización XML no configurada", domain.ErrConfiguration)
	}
	inv, err := uc.run(req)
	if err != nil {
		return nil, err
	}
	if err := uc.recordEntry(ctx, inv); err != nil {
		uc.log.Error().Err(err).
			Str("shop", inv.Shop).
			Str("source", inv.SourceReference).
			Msg("no se pudo registrar la conversión")
	}
	return uc.envelope.Build(inv)
}

// PreviewPDF convierte y genera la vista previa en PDF, sin registrar: la
// vista previa no cuenta como conversión entregada.
func (uc *ConvertInvoiceUseCase) PreviewPDF(_ context.Context, req *dto.ConvertInvoiceRequest) ([]byte, error) {
	if uc.preview == nil {
		return nil, fmt.Errorf("%w: vista previa PDF no configurada", domain.ErrConfiguration)
	}
	inv, err := uc.run(req)
	if err != nil {
		return nil, err
	}
	return uc.preview.Generate(inv)
}

// run ejecuta las fases del pipeline sobre el request y devuelve la factura
// lista para entrega.
func (uc *ConvertInvoiceUseCase) run(req *dto.ConvertInvoiceRequest) (*entity.Invoice, error) {
	src, err := req.Source()
	if err != nil {
		return nil, err
	}

	collector := collect.NewCollector(uc.resolver, req.TaxClassSource(), uc.log)
	inv, err := collector.Collect(src)
	if err != nil {
		return nil, err
	}
	inv.Lines = uc.flattener.Flatten(inv.Lines)
	if err := uc.completor.Complete(inv); err != nil {
		return nil, err
	}

	// Las líneas marcadas (cargos en cero, vales no usados) se descartan
	// recién aquí: las fases anteriores las necesitan como contexto.
	kept := inv.Lines[:0]
	for _, l := range inv.Lines {
		if !l.DoNotAdd {
			kept = append(kept, l)
		}
	}
	inv.Lines = kept
	return inv, nil
}

// GetEntry devuelve el registro de conversión de una fuente.
func (uc *ConvertInvoiceUseCase) GetEntry(ctx context.Context, shop, sourceType, sourceReference string) (*dto.EntryResponse, error) {
	if uc.entryRepo == nil {
		return nil, domain.ErrNotFound
	}
	entry, err := uc.entryRepo.GetBySource(ctx, shop, sourceType, sourceReference)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	return toEntryResponse(entry), nil
}

func (uc *ConvertInvoiceUseCase) recordEntry(ctx context.Context, inv *entity.Invoice) error {
	if uc.entryRepo == nil {
		return nil
	}
	now := time.Now()
	entry := &entity.AcumulusEntry{
		ID:              uuid.New().String(),
		Shop:            inv.Shop,
		SourceType:      string(inv.SourceType),
		SourceReference: inv.SourceReference,
		InvoiceNumber:   inv.Number,
		Concept:         inv.Concept != nil && *inv.Concept,
		WarningCount:    len(inv.Warnings),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if inv.Totals.AmountInc != nil {
		entry.AmountInc = *inv.Totals.AmountInc
	}
	if inv.Totals.AmountVat != nil {
		entry.AmountVat = *inv.Totals.AmountVat
	}
	return uc.entryRepo.Upsert(ctx, entry)
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		Shop:            inv.Shop,
		SourceType:      string(inv.SourceType),
		SourceReference: inv.SourceReference,
		Number:          inv.Number,
		CostCenter:      inv.CostCenter,
		AccountNumber:   inv.AccountNumber,
		Template:        inv.Template,
		Concept:         inv.Concept != nil && *inv.Concept,
		Description:     inv.Description,
		InvoiceNotes:    inv.InvoiceNotes,
		PaymentStatus:   inv.PaymentStatus,
		Totals: dto.TotalsPayload{
			AmountInc: inv.Totals.AmountInc,
			AmountVat: inv.Totals.AmountVat,
			AmountEx:  inv.Totals.AmountEx,
		},
		Currency: dto.CurrencyPayload{
			Code:      inv.Currency.Code,
			Rate:      inv.Currency.Rate,
			DoConvert: inv.Currency.DoConvert,
		},
		Lines: make([]dto.LineResponse, 0, len(inv.Lines)),
	}
	if inv.IssueDate != nil {
		resp.IssueDate = inv.IssueDate.Format("2006-01-02")
	}
	if inv.PaymentDate != nil {
		resp.PaymentDate = inv.PaymentDate.Format("2006-01-02")
	}
	if inv.Customer != nil {
		resp.Customer = dto.CustomerPayload{
			ContactName: inv.Customer.ContactName,
			FullName:    inv.Customer.FullName,
			Address1:    inv.Customer.Address1,
			Address2:    inv.Customer.Address2,
			PostalCode:  inv.Customer.PostalCode,
			City:        inv.Customer.City,
			CountryCode: inv.Customer.CountryCode,
			VatNumber:   inv.Customer.VatNumber,
			Telephone:   inv.Customer.Telephone,
			Email:       inv.Customer.Email,
		}
	}
	if inv.EmailAsPdf != nil {
		resp.EmailAsPdf = &dto.EmailAsPdfResponse{
			EmailTo:   inv.EmailAsPdf.EmailTo,
			EmailBcc:  inv.EmailAsPdf.EmailBcc,
			EmailFrom: inv.EmailAsPdf.EmailFrom,
			Subject:   inv.EmailAsPdf.Subject,
		}
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, toLineResponse(l))
	}
	for _, w := range inv.Warnings {
		resp.Warnings = append(resp.Warnings, dto.WarningResponse{Code: w.Code, Message: w.Message, Severity: w.Severity})
	}
	return resp
}

func toLineResponse(l *entity.Line) dto.LineResponse {
	out := dto.LineResponse{
		Product:      l.Product,
		ItemNumber:   l.ItemNumber,
		Quantity:     l.Quantity,
		UnitPrice:    copyDecimal(l.UnitPrice),
		UnitPriceInc: copyDecimal(l.UnitPriceInc),
		VatRate:      l.VatRate(),
		VatSource:    string(l.Vat.Source),
		Nature:       l.Nature,
		Type:         string(l.Type),
	}
	return out
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func toEntryResponse(e *entity.AcumulusEntry) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:              e.ID,
		Shop:            e.Shop,
		SourceType:      e.SourceType,
		SourceReference: e.SourceReference,
		InvoiceNumber:   e.InvoiceNumber,
		AmountInc:       e.AmountInc,
		AmountVat:       e.AmountVat,
		Concept:         e.Concept,
		WarningCount:    e.WarningCount,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}
