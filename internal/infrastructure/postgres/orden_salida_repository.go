package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

var _ repository.OrdenSalidaRepository = (*OrdenSalidaRepo)(nil)

// OrdenSalidaRepo implementación de OrdenSalidaRepository sobre PostgreSQL.
type OrdenSalidaRepo struct {
	q Querier
}

// NewOrdenSalidaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrdenSalidaRepository(q Querier) *OrdenSalidaRepo {
	return &OrdenSalidaRepo{q: q}
}

// Create persiste la orden de salida. ID repetido retorna ErrDuplicado (una
// orden se finaliza una sola vez).
func (r *OrdenSalidaRepo) Create(ctx context.Context, orden *entity.OrdenSalida) error {
	query := `
		INSERT INTO ordenes_salida (id, total_kg, estado, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, query, orden.ID, orden.TotalKg, orden.Estado, orden.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicado
		}
		return fmt.Errorf("create orden salida: %w", err)
	}
	return nil
}

// GetByID obtiene una orden por ID. Retorna nil si no existe.
func (r *OrdenSalidaRepo) GetByID(ctx context.Context, id string) (*entity.OrdenSalida, error) {
	query := `SELECT id, total_kg, estado, created_at FROM ordenes_salida WHERE id = $1`
	var o entity.OrdenSalida
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.TotalKg, &o.Estado, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get orden salida: %w", err)
	}
	return &o, nil
}

// UpdateEstado cambia el estado de la orden (confirmada -> cancelada).
func (r *OrdenSalidaRepo) UpdateEstado(ctx context.Context, id string, estado string) error {
	tag, err := r.q.Exec(ctx, `UPDATE ordenes_salida SET estado = $2 WHERE id = $1`, id, estado)
	if err != nil {
		return fmt.Errorf("update estado orden salida: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoEncontrado
	}
	return nil
}

// CreateAsignacion persiste un retiro (lote, cantidad) de la orden.
func (r *OrdenSalidaRepo) CreateAsignacion(ctx context.Context, a *entity.Asignacion) error {
	query := `
		INSERT INTO asignaciones (id, orden_salida_id, lote_id, cantidad_kg, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, a.ID, a.OrdenSalidaID, a.LoteID, a.CantidadKg, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create asignacion: %w", err)
	}
	return nil
}

// ListAsignaciones lista los retiros de una orden en orden de inserción.
func (r *OrdenSalidaRepo) ListAsignaciones(ctx context.Context, ordenSalidaID string) ([]*entity.Asignacion, error) {
	query := `
		SELECT id, orden_salida_id, lote_id, cantidad_kg, created_at
		FROM asignaciones WHERE orden_salida_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, ordenSalidaID)
	if err != nil {
		return nil, fmt.Errorf("list asignaciones: %w", err)
	}
	defer rows.Close()
	var list []*entity.Asignacion
	for rows.Next() {
		var a entity.Asignacion
		if err := rows.Scan(&a.ID, &a.OrdenSalidaID, &a.LoteID, &a.CantidadKg, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asignacion: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
