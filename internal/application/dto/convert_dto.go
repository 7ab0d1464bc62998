// Package dto define los cuerpos JSON de la API de conversión y los adapta a
// los accesores que consume el pipeline. Los montos viajan como decimal para
// que el redondeo binario nunca toque los importes de la fuente.
package dto

import "github.com/shopspring/decimal"

// ConvertInvoiceRequest body para POST /api/invoices/convert: el pedido o la
// nota de crédito tal como la reporta la plataforma de origen, ya
// materializado (aquí no hay I/O hacia la tienda).
type ConvertInvoiceRequest struct {
	Shop             string `json:"shop"`
	SourceType       string `json:"source_type"` // order | credit-note
	Reference        string `json:"reference"`
	OrderReference   string `json:"order_reference,omitempty"`
	InvoiceReference string `json:"invoice_reference,omitempty"`
	OrderDate        string `json:"order_date"`             // 2006-01-02
	InvoiceDate      string `json:"invoice_date,omitempty"` // 2006-01-02

	PaymentMethod string `json:"payment_method,omitempty"`
	Paid          bool   `json:"paid"`
	PaymentDate   string `json:"payment_date,omitempty"` // 2006-01-02

	Customer CustomerPayload `json:"customer"`
	Items    []ItemPayload   `json:"items"`

	// Shipping nil = el pedido no tiene envío. El envío gratuito se reporta
	// con montos en cero y sigue produciendo una línea.
	Shipping            *AmountsPayload `json:"shipping,omitempty"`
	ShippingDescription string          `json:"shipping_description,omitempty"`
	Discounts           []ChargePayload `json:"discounts,omitempty"`
	PaymentFee          *AmountsPayload `json:"payment_fee,omitempty"`
	Vouchers            []ChargePayload `json:"vouchers,omitempty"`
	OtherCharges        []OtherPayload  `json:"other_charges,omitempty"`

	Totals   TotalsPayload   `json:"totals"`
	Currency CurrencyPayload `json:"currency"`

	// TaxClasses consulta fiscal materializada de la tienda: tarifas vigentes
	// por clase de impuesto referida desde los artículos.
	TaxClasses map[string][]TaxRatePayload `json:"tax_classes,omitempty"`
}

// ItemPayload un artículo del pedido, con sus líneas hijas (componentes de
// bundle, variantes, opciones).
type ItemPayload struct {
	Product      string           `json:"product"`
	ItemNumber   string           `json:"item_number,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPriceEx  *decimal.Decimal `json:"unit_price_ex,omitempty"`
	UnitPriceInc *decimal.Decimal `json:"unit_price_inc,omitempty"`
	VatAmount    *decimal.Decimal `json:"vat_amount,omitempty"`
	TaxClassID   string           `json:"tax_class_id,omitempty"`
	// Precisión declarada de los montos; ausente usa la tolerancia global.
	PriceTolerance *decimal.Decimal `json:"price_tolerance,omitempty"`
	VatTolerance   *decimal.Decimal `json:"vat_tolerance,omitempty"`
	DiscountInc    *decimal.Decimal `json:"discount_inc,omitempty"`
	Children       []ItemPayload    `json:"children,omitempty"`
}

// AmountsPayload montos de un cargo a nivel de pedido; cualquier miembro
// puede faltar.
type AmountsPayload struct {
	AmountEx  *decimal.Decimal `json:"amount_ex,omitempty"`
	AmountInc *decimal.Decimal `json:"amount_inc,omitempty"`
	VatAmount *decimal.Decimal `json:"vat_amount,omitempty"`
}

// ChargePayload descuento o vale: descripción y monto con IVA.
type ChargePayload struct {
	Description string          `json:"description,omitempty"`
	AmountInc   decimal.Decimal `json:"amount_inc"`
}

// OtherPayload cargo adicional (tasa de gestión, embalaje…).
type OtherPayload struct {
	Description string         `json:"description"`
	Amounts     AmountsPayload `json:"amounts"`
}

// CustomerPayload cliente según la tienda.
type CustomerPayload struct {
	ContactName string `json:"contact_name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	VatNumber   string `json:"vat_number,omitempty"`
	Telephone   string `json:"telephone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// TotalsPayload totales independientes de la fuente.
type TotalsPayload struct {
	AmountInc *decimal.Decimal `json:"amount_inc,omitempty"`
	AmountVat *decimal.Decimal `json:"amount_vat,omitempty"`
	AmountEx  *decimal.Decimal `json:"amount_ex,omitempty"`
}

// CurrencyPayload moneda de los totales. Rate multiplica origen → referencia.
type CurrencyPayload struct {
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	DoConvert bool            `json:"do_convert"`
}

// TaxRatePayload una tarifa vigente de una clase fiscal.
type TaxRatePayload struct {
	Rate  decimal.Decimal `json:"rate"`
	Label string          `json:"label,omitempty"`
}

// InvoiceResponse la factura normalizada para POST /api/invoices/convert.
type InvoiceResponse struct {
	Shop            string `json:"shop"`
	SourceType      string `json:"source_type"`
	SourceReference string `json:"source_reference"`

	Number        string `json:"number,omitempty"`
	IssueDate     string `json:"issue_date,omitempty"` // vacío = fecha de transferencia
	CostCenter    string `json:"cost_center,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Template      string `json:"template,omitempty"`
	Concept       bool   `json:"concept"`
	Description   string `json:"description,omitempty"`
	InvoiceNotes  string `json:"invoice_notes,omitempty"`
	PaymentStatus string `json:"payment_status"`
	PaymentDate   string `json:"payment_date,omitempty"`

	Customer   CustomerPayload     `json:"customer"`
	EmailAsPdf *EmailAsPdfResponse `json:"email_as_pdf,omitempty"`
	Lines      []LineResponse      `json:"lines"`

	Totals   TotalsPayload     `json:"totals"`
	Currency CurrencyPayload   `json:"currency"`
	Warnings []WarningResponse `json:"warnings,omitempty"`
}

// LineResponse línea aplanada de la factura final.
type LineResponse struct {
	Product      string           `json:"product"`
	ItemNumber   string           `json:"item_number,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	UnitPriceInc *decimal.Decimal `json:"unit_price_inc,omitempty"`
	VatRate      *decimal.Decimal `json:"vat_rate,omitempty"` // -1 = exenta
	VatSource    string           `json:"vat_source,omitempty"`
	Nature       string           `json:"nature,omitempty"`
	Type         string           `json:"type"`
}

// WarningResponse advertencia blanda acumulada durante la conversión.
type WarningResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// EmailAsPdfResponse sección de envío por correo, si quedó habilitada.
type EmailAsPdfResponse struct {
	EmailTo   string `json:"email_to"`
	EmailBcc  string `json:"email_bcc,omitempty"`
	EmailFrom string `json:"email_from,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// EntryResponse registro de conversión persistido, para
// GET /api/entries/:shop/:reference.
type EntryResponse struct {
	ID              string          `json:"id"`
	Shop            string          `json:"shop"`
	SourceType      string          `json:"source_type"`
	SourceReference string          `json:"source_reference"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	AmountInc       decimal.Decimal `json:"amount_inc"`
	AmountVat       decimal.Decimal `json:"amount_vat"`
	Concept         bool            `json:"concept"`
	WarningCount    int             `json:"warning_count"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}
