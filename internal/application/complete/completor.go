// Package complete aplica las tareas de completado sobre la factura
// recolectada y aplanada: cada tarea es idempotente, comprueba sus
// precondiciones y solo escribe campos aún no establecidos (semántica
// "no sobrescribir"). La tarea Concept corre siempre la última porque
// depende de las advertencias registradas por todas las anteriores.
package complete

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Completor orquesta las tareas de completado en orden fijo documentado.
type Completor struct {
	vat *vat.Resolver
	cfg Settings
	log zerolog.Logger
}

// NewCompletor construye el completor.
func NewCompletor(resolver *vat.Resolver, cfg Settings, log zerolog.Logger) *Completor {
	return &Completor{vat: resolver, cfg: cfg, log: log}
}

// Complete ejecuta la secuencia completa. Orden fijo: Customer →
// InvoiceNumber → IssueDate → AccountingInfo → MultiTextLineProperties →
// Template → EmailAsPdf → Lines (refinamiento de rangos, reparto
// proporcional, régimen de margen) → corrección de descuento de envío →
// normalización de moneda → verificación de totales → Concept. La
// verificación corre después de la normalización para que también aplique a
// facturas cuyos totales llegaron en moneda extranjera.
func (c *Completor) Complete(inv *entity.Invoice) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.completeCustomer(inv)
	c.completeInvoiceNumber(inv)
	c.completeIssueDate(inv)
	c.completeAccountingInfo(inv)
	c.normalizeMultiText(inv)
	c.completeTemplate(inv)
	c.completeEmailAsPdf(inv)
	if err := c.completeLines(inv); err != nil {
		return err
	}
	c.correctShippingDiscount(inv)
	c.normalizeCurrency(inv)
	c.checkTotalsSum(inv)
	c.completeConcept(inv)

	c.log.Debug().
		Str("shop", inv.Shop).
		Str("source", inv.SourceReference).
		Int("warnings", len(inv.Warnings)).
		Msg("factura completada")
	return nil
}

// completeCustomer retrocesos de configuración y anonimización.
func (c *Completor) completeCustomer(inv *entity.Invoice) {
	if inv.Customer == nil {
		inv.Customer = &entity.Customer{}
	}
	cust := inv.Customer
	if cust.CountryCode == "" {
		cust.CountryCode = c.cfg.DefaultCountryCode
	}
	cust.CountryCode = strings.ToLower(cust.CountryCode)
	if c.cfg.AnonymizeCustomer {
		cust.ContactName = ""
		cust.FullName = ""
		cust.Telephone = ""
		cust.Email = ""
	}
}

// completeInvoiceNumber elige la referencia según configuración y elimina
// todo carácter no numérico. Con fuente "acumulus" el número queda vacío y
// lo asigna la contabilidad.
func (c *Completor) completeInvoiceNumber(inv *entity.Invoice) {
	if inv.Number != "" {
		inv.Number = digitsOnly(inv.Number)
		return
	}
	switch c.cfg.NumberSource {
	case NumberSourceOrder:
		inv.Number = digitsOnly(inv.Source.OrderReference)
	case NumberSourceInvoice:
		ref := inv.Source.InvoiceReference
		if ref == "" {
			ref = inv.Source.OrderReference
		}
		inv.Number = digitsOnly(ref)
	}
}

// completeIssueDate no sobrescribe una fecha ya establecida explícitamente.
func (c *Completor) completeIssueDate(inv *entity.Invoice) {
	if inv.IssueDate != nil {
		return
	}
	switch c.cfg.DateSource {
	case DateSourceOrder:
		d := inv.Source.OrderDate
		inv.IssueDate = &d
	case DateSourceInvoice:
		if inv.Source.InvoiceDate != nil {
			d := *inv.Source.InvoiceDate
			inv.IssueDate = &d
		} else {
			d := inv.Source.OrderDate
			inv.IssueDate = &d
		}
	}
	// DateSourceTransfer: se deja sin establecer a propósito.
}

// completeAccountingInfo centro de costo y cuenta: default más override por
// método de pago; no sobrescribe valores ya establecidos.
func (c *Completor) completeAccountingInfo(inv *entity.Invoice) {
	method := inv.Source.PaymentMethod
	if inv.CostCenter == "" {
		if v, ok := c.cfg.CostCenterByPaymentMethod[method]; ok && v != "" {
			inv.CostCenter = v
		} else {
			inv.CostCenter = c.cfg.DefaultCostCenter
		}
	}
	if inv.AccountNumber == "" {
		if v, ok := c.cfg.AccountNumberByPaymentMethod[method]; ok && v != "" {
			inv.AccountNumber = v
		} else {
			inv.AccountNumber = c.cfg.DefaultAccountNumber
		}
	}
}

// normalizeMultiText el formato de destino no representa saltos de línea
// reales: toda variante (\r\n, \r, \n) se normaliza a la secuencia literal
// de dos caracteres "\n".
func (c *Completor) normalizeMultiText(inv *entity.Invoice) {
	inv.Description = normalizeNewlines(inv.Description)
	inv.InvoiceNotes = normalizeNewlines(inv.InvoiceNotes)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// completeTemplate plantilla según estado de pago, con retroceso a la de
// pendientes cuando no hay plantilla específica de pagadas.
func (c *Completor) completeTemplate(inv *entity.Invoice) {
	if inv.Template != "" {
		return
	}
	if inv.PaymentStatus == entity.PaymentStatusPaid && c.cfg.TemplatePaid != "" {
		inv.Template = c.cfg.TemplatePaid
		return
	}
	inv.Template = c.cfg.TemplateDue
}

// completeEmailAsPdf construye la sección si está habilitada y el cliente
// tiene email; [#] en el asunto se sustituye por el número de factura.
func (c *Completor) completeEmailAsPdf(inv *entity.Invoice) {
	if !c.cfg.EmailAsPdfEnabled || inv.EmailAsPdf != nil {
		return
	}
	if inv.Customer == nil || inv.Customer.Email == "" {
		return
	}
	inv.EmailAsPdf = &entity.EmailAsPdf{
		EmailTo:   inv.Customer.Email,
		EmailBcc:  c.cfg.EmailBcc,
		EmailFrom: c.cfg.EmailFrom,
		Subject:   strings.ReplaceAll(c.cfg.EmailSubject, "[#]", inv.Number),
	}
}

// completeConcept corre la última: decide el borrador según el modo y las
// advertencias acumuladas. Solo escribe si Concept no fue establecido antes.
func (c *Completor) completeConcept(inv *entity.Invoice) {
	if inv.Concept != nil {
		return
	}
	var concept bool
	switch c.cfg.ConceptMode {
	case ConceptAlways:
		concept = true
	case ConceptOnWarnings:
		concept = inv.HasWarnings()
	}
	inv.Concept = &concept
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
