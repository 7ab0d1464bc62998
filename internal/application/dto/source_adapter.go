package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/application/collect"
	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain"
	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// Source valida el request y lo expone como fuente de pedido para el
// pipeline. Los errores de forma se reportan aquí; los de contenido (campos
// obligatorios de línea) los reporta el colector con contexto de línea.
func (r *ConvertInvoiceRequest) Source() (collect.OrderSource, error) {
	if r.Shop == "" || r.Reference == "" {
		return nil, fmt.Errorf("%w: shop y reference son obligatorios", domain.ErrInvalidInput)
	}
	st := entity.SourceType(r.SourceType)
	if st != entity.SourceOrder && st != entity.SourceCreditNote {
		return nil, fmt.Errorf("%w: source_type %q no reconocido", domain.ErrInvalidInput, r.SourceType)
	}
	orderDate, err := time.Parse(dateLayout, r.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("%w: order_date %q", domain.ErrInvalidInput, r.OrderDate)
	}
	invoiceDate, err := parseOptionalDate(r.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice_date %q", domain.ErrInvalidInput, r.InvoiceDate)
	}
	paymentDate, err := parseOptionalDate(r.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("%w: payment_date %q", domain.ErrInvalidInput, r.PaymentDate)
	}
	return &orderAdapter{req: r, sourceType: st, orderDate: orderDate, invoiceDate: invoiceDate, paymentDate: paymentDate}, nil
}

// TaxClassSource expone la consulta fiscal materializada del request, o nil
// si la tienda no la envió.
func (r *ConvertInvoiceRequest) TaxClassSource() collect.TaxClassResolver {
	if len(r.TaxClasses) == 0 {
		return nil
	}
	return taxTableAdapter(r.TaxClasses)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// orderAdapter presenta el request a través de los accesores del colector.
type orderAdapter struct {
	req         *ConvertInvoiceRequest
	sourceType  entity.SourceType
	orderDate   time.Time
	invoiceDate *time.Time
	paymentDate *time.Time
}

var _ collect.OrderSource = (*orderAdapter)(nil)

func (a *orderAdapter) Shop() string                  { return a.req.Shop }
func (a *orderAdapter) SourceType() entity.SourceType { return a.sourceType }
func (a *orderAdapter) Reference() string             { return a.req.Reference }
func (a *orderAdapter) OrderReference() string {
	if a.req.OrderReference != "" {
		return a.req.OrderReference
	}
	return a.req.Reference
}
func (a *orderAdapter) InvoiceReference() string { return a.req.InvoiceReference }
func (a *orderAdapter) OrderDate() time.Time     { return a.orderDate }
func (a *orderAdapter) InvoiceDate() *time.Time  { return a.invoiceDate }

func (a *orderAdapter) Items() []collect.ItemSource { return itemAdapters(a.req.Items) }

func (a *orderAdapter) Shipping() *collect.AmountPair {
	return amountPair(a.req.Shipping)
}
func (a *orderAdapter) ShippingDescription() string { return a.req.ShippingDescription }

func (a *orderAdapter) Discounts() []collect.DiscountSource {
	out := make([]collect.DiscountSource, len(a.req.Discounts))
	for i := range a.req.Discounts {
		out[i] = chargeAdapter{&a.req.Discounts[i]}
	}
	return out
}

func (a *orderAdapter) PaymentFee() *collect.AmountPair {
	return amountPair(a.req.PaymentFee)
}

func (a *orderAdapter) Vouchers() []collect.VoucherSource {
	out := make([]collect.VoucherSource, len(a.req.Vouchers))
	for i := range a.req.Vouchers {
		out[i] = chargeAdapter{&a.req.Vouchers[i]}
	}
	return out
}

func (a *orderAdapter) OtherCharges() []collect.ChargeSource {
	out := make([]collect.ChargeSource, len(a.req.OtherCharges))
	for i := range a.req.OtherCharges {
		out[i] = otherAdapter{&a.req.OtherCharges[i]}
	}
	return out
}

func (a *orderAdapter) PaymentMethod() string   { return a.req.PaymentMethod }
func (a *orderAdapter) Paid() bool              { return a.req.Paid }
func (a *orderAdapter) PaymentDate() *time.Time { return a.paymentDate }

func (a *orderAdapter) Customer() collect.CustomerSource { return customerAdapter{&a.req.Customer} }

func (a *orderAdapter) Totals() entity.Totals {
	return entity.Totals{
		AmountInc: a.req.Totals.AmountInc,
		AmountVat: a.req.Totals.AmountVat,
		AmountEx:  a.req.Totals.AmountEx,
	}
}

func (a *orderAdapter) Currency() entity.Currency {
	return entity.Currency{
		Code:      a.req.Currency.Code,
		Rate:      a.req.Currency.Rate,
		DoConvert: a.req.Currency.DoConvert,
	}
}

func amountPair(p *AmountsPayload) *collect.AmountPair {
	if p == nil {
		return nil
	}
	return &collect.AmountPair{Ex: p.AmountEx, Inc: p.AmountInc, Vat: p.VatAmount}
}

type itemAdapter struct{ p *ItemPayload }

var _ collect.ItemSource = itemAdapter{}

func itemAdapters(items []ItemPayload) []collect.ItemSource {
	out := make([]collect.ItemSource, len(items))
	for i := range items {
		out[i] = itemAdapter{&items[i]}
	}
	return out
}

func (a itemAdapter) Product() string    { return a.p.Product }
func (a itemAdapter) ItemNumber() string { return a.p.ItemNumber }
func (a itemAdapter) Quantity() decimal.Decimal {
	if a.p.Quantity.IsZero() {
		return decimal.NewFromInt(1)
	}
	return a.p.Quantity
}
func (a itemAdapter) UnitPriceEx() *decimal.Decimal    { return a.p.UnitPriceEx }
func (a itemAdapter) UnitPriceInc() *decimal.Decimal   { return a.p.UnitPriceInc }
func (a itemAdapter) VatAmount() *decimal.Decimal      { return a.p.VatAmount }
func (a itemAdapter) TaxClassID() string               { return a.p.TaxClassID }
func (a itemAdapter) PriceTolerance() *decimal.Decimal { return a.p.PriceTolerance }
func (a itemAdapter) VatTolerance() *decimal.Decimal   { return a.p.VatTolerance }
func (a itemAdapter) DiscountInc() *decimal.Decimal    { return a.p.DiscountInc }
func (a itemAdapter) Children() []collect.ItemSource   { return itemAdapters(a.p.Children) }

type chargeAdapter struct{ p *ChargePayload }

func (a chargeAdapter) Description() string        { return a.p.Description }
func (a chargeAdapter) AmountInc() decimal.Decimal { return a.p.AmountInc }

type otherAdapter struct{ p *OtherPayload }

func (a otherAdapter) Description() string { return a.p.Description }
func (a otherAdapter) Amounts() collect.AmountPair {
	return collect.AmountPair{Ex: a.p.Amounts.AmountEx, Inc: a.p.Amounts.AmountInc, Vat: a.p.Amounts.VatAmount}
}

type customerAdapter struct{ p *CustomerPayload }

func (a customerAdapter) ContactName() string { return a.p.ContactName }
func (a customerAdapter) FullName() string    { return a.p.FullName }
func (a customerAdapter) Address1() string    { return a.p.Address1 }
func (a customerAdapter) Address2() string    { return a.p.Address2 }
func (a customerAdapter) PostalCode() string  { return a.p.PostalCode }
func (a customerAdapter) City() string        { return a.p.City }
func (a customerAdapter) CountryCode() string { return a.p.CountryCode }
func (a customerAdapter) VatNumber() string   { return a.p.VatNumber }
func (a customerAdapter) Telephone() string   { return a.p.Telephone }
func (a customerAdapter) Email() string       { return a.p.Email }

type taxTableAdapter map[string][]TaxRatePayload

func (t taxTableAdapter) RatesForClass(classID string) []vat.ClassRate {
	rates := t[classID]
	out := make([]vat.ClassRate, len(rates))
	for i, r := range rates {
		out[i] = vat.ClassRate{Rate: r.Rate, Label: r.Label}
	}
	return out
}
