package repository

import (
	"context"
	"time"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
)

// MovimientoRepository define el puerto de persistencia del libro de
// movimientos. Append-only: no existen operaciones de update ni delete.
type MovimientoRepository interface {
	Create(ctx context.Context, m *entity.Movimiento) error
	// ListByLote lista movimientos de un lote en orden estable
	// (created_at, id ascendente), con rango de fechas opcional.
	ListByLote(ctx context.Context, loteID string, desde, hasta *time.Time, limit, offset int) ([]*entity.Movimiento, error)
	CountByLote(ctx context.Context, loteID string) (int, error)
	// ResumenSaldo recalcula el agregado desde el conjunto de movimientos.
	ResumenSaldo(ctx context.Context, loteID string) (*entity.ResumenSaldo, error)
}
