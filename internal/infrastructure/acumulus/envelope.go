// Package acumulus serializa la factura normalizada al sobre XML que espera
// el servicio web de contabilidad (raíz <myxml>, con el contrato de API y la
// sección <customer><invoice> anidada).
package acumulus

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// Contract credenciales de API del contrato de contabilidad.
type Contract struct {
	ContractCode string
	UserName     string
	Password     string
	TestMode     bool
}

// EnvelopeBuilder construye el sobre XML de envío.
type EnvelopeBuilder struct {
	contract Contract
}

// NewEnvelopeBuilder crea el servicio.
func NewEnvelopeBuilder(contract Contract) *EnvelopeBuilder {
	return &EnvelopeBuilder{contract: contract}
}

// Build genera el documento completo. La factura debe venir del pipeline de
// conversión: toda línea con tarifa resuelta y precios derivados.
func (b *EnvelopeBuilder) Build(inv *entity.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("acumulus: factura nil")
	}
	for i, l := range inv.Lines {
		if !l.Vat.Resolved() {
			return nil, fmt.Errorf("acumulus: línea %d (%s) sin tarifa resuelta", i, l.Product)
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("myxml")

	contract := root.CreateElement("contract")
	setText(contract, "contractcode", b.contract.ContractCode)
	setText(contract, "username", b.contract.UserName)
	setText(contract, "password", b.contract.Password)
	setText(root, "format", "xml")
	setText(root, "testmode", boolDigit(b.contract.TestMode))

	customer := root.CreateElement("customer")
	b.writeCustomer(customer, inv.Customer)
	b.writeInvoice(customer.CreateElement("invoice"), inv)

	doc.Indent(2)
	return doc.WriteToBytes()
}

func (b *EnvelopeBuilder) writeCustomer(el *etree.Element, c *entity.Customer) {
	if c == nil {
		return
	}
	setOptional(el, "fullname", c.FullName)
	setOptional(el, "contactname", c.ContactName)
	setOptional(el, "address1", c.Address1)
	setOptional(el, "address2", c.Address2)
	setOptional(el, "postalcode", c.PostalCode)
	setOptional(el, "city", c.City)
	setOptional(el, "countrycode", c.CountryCode)
	setOptional(el, "vatnumber", c.VatNumber)
	setOptional(el, "telephone", c.Telephone)
	setOptional(el, "email", c.Email)
}

func (b *EnvelopeBuilder) writeInvoice(el *etree.Element, inv *entity.Invoice) {
	if inv.Concept != nil {
		setText(el, "concept", boolDigit(*inv.Concept))
	}
	setOptional(el, "number", inv.Number)
	if inv.IssueDate != nil {
		setText(el, "issuedate", inv.IssueDate.Format("2006-01-02"))
	}
	setOptional(el, "costcenter", inv.CostCenter)
	setOptional(el, "accountnumber", inv.AccountNumber)
	switch inv.PaymentStatus {
	case entity.PaymentStatusPaid:
		setText(el, "paymentstatus", "2")
		if inv.PaymentDate != nil {
			setText(el, "paymentdate", inv.PaymentDate.Format("2006-01-02"))
		}
	default:
		setText(el, "paymentstatus", "1")
	}
	setOptional(el, "description", inv.Description)
	setOptional(el, "invoicenotes", inv.InvoiceNotes)
	setOptional(el, "template", inv.Template)

	for _, line := range inv.Lines {
		b.writeLine(el.CreateElement("line"), line)
	}

	if pdf := inv.EmailAsPdf; pdf != nil {
		section := el.CreateElement("emailaspdf")
		setText(section, "emailto", pdf.EmailTo)
		setOptional(section, "emailbcc", pdf.EmailBcc)
		setOptional(section, "emailfrom", pdf.EmailFrom)
		setOptional(section, "subject", pdf.Subject)
		setText(section, "confirmreading", boolDigit(pdf.ConfirmReading))
	}
}

func (b *EnvelopeBuilder) writeLine(el *etree.Element, line *entity.Line) {
	setText(el, "product", line.Product)
	setOptional(el, "itemnumber", line.ItemNumber)
	setText(el, "nature", line.Nature)
	if line.UnitPrice != nil {
		setText(el, "unitprice", line.UnitPrice.StringFixed(4))
	}
	// La tarifa -1 es el valor de exención que entiende el servicio.
	setText(el, "vatrate", line.Vat.Rate.String())
	setText(el, "quantity", line.Quantity.String())
	if line.CostPrice != nil {
		setText(el, "costprice", line.CostPrice.StringFixed(4))
	}
	if vatAmount, ok := line.Meta.Decimal(entity.MetaVatAmount); ok {
		setText(el, "vatamount", vatAmount.StringFixed(4))
	}
}

func setText(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func setOptional(parent *etree.Element, tag, value string) {
	if value == "" {
		return
	}
	setText(parent, tag, value)
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
