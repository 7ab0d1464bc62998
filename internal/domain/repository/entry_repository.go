package repository

import (
	"context"

	"github.com/facturalink/acumulus-bridge/internal/domain/entity"
)

// EntryRepository persistencia del registro de conversiones (acumulus_entries).
type EntryRepository interface {
	// Upsert inserta o actualiza la entrada de la fuente (shop, source_type, source_reference únicos).
	Upsert(ctx context.Context, entry *entity.AcumulusEntry) error
	// GetBySource devuelve la entrada de una fuente, o nil si no existe.
	GetBySource(ctx context.Context, shop, sourceType, sourceReference string) (*entity.AcumulusEntry, error)
}
