package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de fuente soportados.
type SourceType string

const (
	SourceOrder      SourceType = "order"
	SourceCreditNote SourceType = "credit-note"
)

// Estados de pago (determinan la plantilla de factura).
const (
	PaymentStatusDue  = "due"
	PaymentStatusPaid = "paid"
)

// Severidad de advertencias acumuladas en la factura.
const (
	WarningSeverityInfo    = "info"
	WarningSeverityWarning = "warning"
)

// Warning advertencia blanda acumulada durante el pipeline. Nunca se descarta:
// viaja con la factura y puede forzar el envío como borrador (tarea Concept).
type Warning struct {
	Code     string
	Message  string
	Severity string
}

// Customer datos del cliente de la factura.
type Customer struct {
	ContactName string
	FullName    string
	Address1    string
	Address2    string
	PostalCode  string
	City        string
	CountryCode string // ISO 3166-1 alfa-2, minúsculas
	VatNumber   string
	Telephone   string
	Email       string
}

// EmailAsPdf sección opcional: la contabilidad envía la factura como PDF.
type EmailAsPdf struct {
	EmailTo        string
	EmailBcc       string
	EmailFrom      string
	Subject        string
	ConfirmReading bool
}

// Totals totales de la factura según la fuente, rastreados de forma
// independiente a las líneas. Son la verdad de referencia para la
// reconciliación y la conversión de moneda. A lo sumo hace falta un miembro
// independiente; los demás se derivan.
type Totals struct {
	AmountInc *decimal.Decimal
	AmountVat *decimal.Decimal
	AmountEx  *decimal.Decimal
}

// Complete deriva los miembros faltantes a partir de los presentes.
func (t *Totals) Complete() {
	switch {
	case t.AmountInc == nil && t.AmountEx != nil && t.AmountVat != nil:
		inc := t.AmountEx.Add(*t.AmountVat)
		t.AmountInc = &inc
	case t.AmountEx == nil && t.AmountInc != nil && t.AmountVat != nil:
		ex := t.AmountInc.Sub(*t.AmountVat)
		t.AmountEx = &ex
	case t.AmountVat == nil && t.AmountInc != nil && t.AmountEx != nil:
		vat := t.AmountInc.Sub(*t.AmountEx)
		t.AmountVat = &vat
	}
}

// Currency moneda de los totales de la fuente. Rate es el multiplicador que
// convierte un monto en moneda de origen a la moneda de referencia (EUR):
// eur = monto × Rate. DoConvert indica si la conversión es necesaria (muchas
// tiendas guardan los pedidos ya en la moneda por defecto de la tienda).
type Currency struct {
	Code      string
	Rate      decimal.Decimal
	DoConvert bool
}

// SourceInfo referencias y fechas de la fuente, insumo de las tareas de
// completado (número de factura, fecha de emisión, info contable).
type SourceInfo struct {
	OrderReference   string
	InvoiceReference string
	OrderDate        time.Time
	InvoiceDate      *time.Time
	PaymentMethod    string
}

// Invoice agregado raíz: la factura Acumulus en construcción. La posee en
// exclusiva el pipeline que la construye; tras la entrega no se muta.
type Invoice struct {
	// Identificación de la fuente (contexto para errores y para el registro de envíos)
	Shop            string
	SourceType      SourceType
	SourceReference string
	Source          SourceInfo

	Number        string
	IssueDate     *time.Time // nil = la contabilidad usa la fecha de transferencia
	CostCenter    string
	AccountNumber string
	Template      string
	Concept       *bool // nil = sin decidir; la tarea Concept corre al final
	Description   string
	InvoiceNotes  string
	PaymentStatus string
	PaymentDate   *time.Time

	Customer   *Customer
	EmailAsPdf *EmailAsPdf
	Lines      []*Line // orden de inserción = orden de presentación

	Totals   Totals
	Currency Currency
	Warnings []Warning
}

// AddWarning acumula una advertencia blanda en la factura.
func (i *Invoice) AddWarning(code, message string) {
	i.Warnings = append(i.Warnings, Warning{Code: code, Message: message, Severity: WarningSeverityWarning})
}

// HasWarnings indica si alguna fase registró advertencias.
func (i *Invoice) HasWarnings() bool { return len(i.Warnings) > 0 }

// LinesAmountInc suma cantidad × precio con IVA de las líneas no excluidas.
// Las líneas de descuento ya llevan su delta con IVA en el precio unitario.
func (i *Invoice) LinesAmountInc() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range i.Lines {
		if l.DoNotAdd {
			continue
		}
		sum = sum.Add(l.AmountInc())
	}
	return sum
}
