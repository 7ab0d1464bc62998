// Package pdf genera la vista previa en PDF de la factura convertida, para
// revisión humana antes del envío a la contabilidad.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda + referencia  │  N° Factura + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + dirección + contacto                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA% | Importe         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base / IVA / TOTAL                                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ADVERTENCIAS de la conversión (si hay) + marca BORRADOR     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 60, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// PreviewGenerator genera la vista previa usando Maroto v2.
type PreviewGenerator struct{}

// NewPreviewGenerator construye el generador.
func NewPreviewGenerator() *PreviewGenerator { return &PreviewGenerator{} }

// Generate genera el PDF y devuelve sus bytes.
func (g *PreviewGenerator) Generate(inv *entity.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("pdf: factura nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Vista previa de factura", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(inv.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(inv.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv.Totals))

	if len(inv.Warnings) > 0 || (inv.Concept != nil && *inv.Concept) {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		for _, r := range warningRows(inv) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tienda + referencia (izq) y N° factura + fecha (der).
func headerRow(inv *entity.Invoice) core.Row {
	fecha := "fecha de transferencia"
	if inv.IssueDate != nil {
		fecha = inv.IssueDate.Format("02/01/2006")
	}
	kind := "FACTURA"
	if inv.SourceType == entity.SourceCreditNote {
		kind = "NOTA DE CRÉDITO"
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(inv.Shop, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Referencia: "+inv.SourceReference, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(kind+" (VISTA PREVIA)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(inv.Number, "—"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente de la factura.
func customerRow(c *entity.Customer) core.Row {
	if c == nil {
		c = &entity.Customer{}
	}
	address := c.Address1
	if c.PostalCode != "" || c.City != "" {
		address = fmt.Sprintf("%s, %s %s", c.Address1, c.PostalCode, c.City)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(c.FullName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s   |   Email: %s   |   Tel: %s",
				nonEmpty(address, "—"),
				nonEmpty(c.Email, "—"),
				nonEmpty(c.Telephone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("P. Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Importe", 3, align.Right),
	)
}

// tableLineRows: una fila por línea de la factura.
func tableLineRows(lines []*entity.Line) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		unit := "—"
		amount := "—"
		if l.UnitPrice != nil {
			unit = "€ " + l.UnitPrice.StringFixed(2)
			amount = "€ " + l.UnitPrice.Mul(l.Quantity).StringFixed(2)
		}
		rate := "—"
		if l.Vat.Resolved() {
			if l.Vat.Exempt() {
				rate = "exento"
			} else {
				rate = l.Vat.Rate.String() + "%"
			}
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.Product,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				unit,
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				rate,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				amount,
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(totals entity.Totals) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Base imponible:"),
			label("IVA:"),
			grandLabel("TOTAL:"),
		),
		col.New(3).Add(
			value(money(totals.AmountEx)),
			value(money(totals.AmountVat)),
			grandValue(money(totals.AmountInc)),
		),
		col.New(3),
	)
}

// warningRows: advertencias de la conversión y marca de borrador.
func warningRows(inv *entity.Invoice) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("ADVERTENCIAS DE LA CONVERSIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorAlert, Top: 1,
			}),
		)),
	}
	for _, w := range inv.Warnings {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("• [%s] %s", w.Code, w.Message), props.Text{
				Size: 7, Color: colorGray, Top: 0.5, Left: 2,
			}),
		)))
	}
	if inv.Concept != nil && *inv.Concept {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("SE ENVIARÁ COMO BORRADOR (CONCEPT)", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Center,
				Color: colorAlert, Top: 2,
			}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return "€ " + d.StringFixed(2)
}
