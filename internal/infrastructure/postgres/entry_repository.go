package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
	"github.com/facturalink/acumulus-bridge/internal/domain/repository"
)

var _ repository.EntryRepository = (*EntryRepo)(nil)

// EntryRepo implementación de EntryRepository sobre acumulus_entries
// (usable con pool o tx).
type EntryRepo struct {
	q Querier
}

// NewEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEntryRepository(q Querier) *EntryRepo {
	return &EntryRepo{q: q}
}

// Upsert inserta o actualiza la entrada; (shop, source_type, source_reference)
// es único: reconvertir la misma fuente actualiza el registro existente.
func (r *EntryRepo) Upsert(ctx context.Context, entry *entity.AcumulusEntry) error {
	query := `
		INSERT INTO acumulus_entries
			(id, shop, source_type, source_reference, invoice_number,
			 amount_inc, amount_vat, concept, warning_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (shop, source_type, source_reference) DO UPDATE SET
			invoice_number = EXCLUDED.invoice_number,
			amount_inc     = EXCLUDED.amount_inc,
			amount_vat     = EXCLUDED.amount_vat,
			concept        = EXCLUDED.concept,
			warning_count  = EXCLUDED.warning_count,
			updated_at     = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.Shop, entry.SourceType, entry.SourceReference, entry.InvoiceNumber,
		entry.AmountInc, entry.AmountVat, entry.Concept, entry.WarningCount,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Conflicto sobre el ID, no sobre la fuente: lo trata el caller.
			return fmt.Errorf("upsert entry (id duplicado): %w", err)
		}
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// GetBySource devuelve la entrada de una fuente, o nil si no existe.
func (r *EntryRepo) GetBySource(ctx context.Context, shop, sourceType, sourceReference string) (*entity.AcumulusEntry, error) {
	query := `
		SELECT id, shop, source_type, source_reference, invoice_number,
		       amount_inc, amount_vat, concept, warning_count, created_at, updated_at
		FROM acumulus_entries
		WHERE shop = $1 AND source_type = $2 AND source_reference = $3`
	var e entity.AcumulusEntry
	err := r.q.QueryRow(ctx, query, shop, sourceType, sourceReference).Scan(
		&e.ID, &e.Shop, &e.SourceType, &e.SourceReference, &e.InvoiceNumber,
		&e.AmountInc, &e.AmountVat, &e.Concept, &e.WarningCount, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}
