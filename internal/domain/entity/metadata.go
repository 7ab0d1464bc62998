package entity

import "github.com/shopspring/decimal"

// MetaKey clave tipada de la bolsa de metadata de una línea.
type MetaKey string

const (
	MetaVatAmount           MetaKey = "vat-amount"               // monto de IVA reportado por la fuente
	MetaVatClassID          MetaKey = "vat-class-id"             // clase fiscal de la fuente
	MetaVatClassName        MetaKey = "vat-class-name"
	MetaVatRateLookup       MetaKey = "vat-rate-lookup"          // tarifas candidatas de la consulta fiscal (multivalor)
	MetaVatRateLookupLabel  MetaKey = "vat-rate-lookup-label"
	MetaPrecisionUnitPrice  MetaKey = "precision-unit-price"     // tolerancia declarada del precio
	MetaPrecisionVatAmount  MetaKey = "precision-vat-amount"     // tolerancia declarada del IVA
	MetaLineDiscountInc     MetaKey = "line-discount-amount-inc" // descuento aplicado sobre la línea (con IVA)
	MetaFieldsCalculated    MetaKey = "fields-calculated"        // campos derivados, no reportados (multivalor)
	MetaChildrenMerged      MetaKey = "children-merged"          // nº de hijas fusionadas por el aplanador
	MetaParentVatRate       MetaKey = "parent-vat-rate"
	MetaStrategySplitSource MetaKey = "strategy-split-source"    // descripción de la línea original repartida
)

// Metadata bolsa clave/valor de una línea: claves tipadas, valores simples o
// listas ordenadas. Set reemplaza, Add agrega (semántica multivalor explícita).
type Metadata map[MetaKey][]any

// NewMetadata crea una bolsa vacía.
func NewMetadata() Metadata { return make(Metadata) }

// Set reemplaza el valor de la clave.
func (m Metadata) Set(k MetaKey, v any) { m[k] = []any{v} }

// Add agrega un valor al final de la lista de la clave.
func (m Metadata) Add(k MetaKey, v any) { m[k] = append(m[k], v) }

// Delete elimina la clave.
func (m Metadata) Delete(k MetaKey) { delete(m, k) }

// Has indica si la clave existe.
func (m Metadata) Has(k MetaKey) bool { return len(m[k]) > 0 }

// Get devuelve el primer valor de la clave.
func (m Metadata) Get(k MetaKey) (any, bool) {
	if vs := m[k]; len(vs) > 0 {
		return vs[0], true
	}
	return nil, false
}

// All devuelve todos los valores de la clave en orden de inserción.
func (m Metadata) All(k MetaKey) []any { return m[k] }

// Decimal devuelve el primer valor como decimal, si existe y es decimal.
func (m Metadata) Decimal(k MetaKey) (decimal.Decimal, bool) {
	v, ok := m.Get(k)
	if !ok {
		return decimal.Zero, false
	}
	d, ok := v.(decimal.Decimal)
	return d, ok
}

// String devuelve el primer valor como string, si existe y es string.
func (m Metadata) String(k MetaKey) (string, bool) {
	v, ok := m.Get(k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
