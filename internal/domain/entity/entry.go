package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcumulusEntry registro de una conversión: enlaza la fuente de la tienda
// (pedido o nota de crédito) con la factura normalizada producida. Se
// persiste antes de la entrega al cliente API para poder auditar y evitar
// conversiones dobles.
type AcumulusEntry struct {
	ID              string
	Shop            string
	SourceType      string // order | credit-note
	SourceReference string
	InvoiceNumber   string
	AmountInc       decimal.Decimal
	AmountVat       decimal.Decimal
	Concept         bool
	WarningCount    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
