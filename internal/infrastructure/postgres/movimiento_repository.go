package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

var _ repository.MovimientoRepository = (*MovimientoRepo)(nil)

// MovimientoRepo implementación del libro de movimientos sobre PostgreSQL.
// Solo INSERT y SELECT: la tabla es append-only.
type MovimientoRepo struct {
	q Querier
}

// NewMovimientoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovimientoRepository(q Querier) *MovimientoRepo {
	return &MovimientoRepo{q: q}
}

// Create persiste un movimiento.
func (r *MovimientoRepo) Create(ctx context.Context, m *entity.Movimiento) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movimientos (id, lote_id, tipo, cantidad_kg, orden_origen_id, tipo_orden, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.LoteID, m.Tipo, m.CantidadKg, m.OrdenOrigenID, m.TipoOrden, m.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create movimiento: %w", err)
	}
	return nil
}

// ListByLote lista movimientos de un lote en orden estable (created_at, id).
func (r *MovimientoRepo) ListByLote(ctx context.Context, loteID string, desde, hasta *time.Time, limit, offset int) ([]*entity.Movimiento, error) {
	query := `
		SELECT id, lote_id, tipo, cantidad_kg, orden_origen_id, tipo_orden, created_at, created_by
		FROM movimientos WHERE lote_id = $1`
	args := []any{loteID}
	pos := 2
	if desde != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *desde)
		pos++
	}
	if hasta != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *hasta)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movimiento
	for rows.Next() {
		var m entity.Movimiento
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.LoteID, &m.Tipo, &m.CantidadKg,
			&m.OrdenOrigenID, &m.TipoOrden, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CountByLote cuenta los movimientos de un lote.
func (r *MovimientoRepo) CountByLote(ctx context.Context, loteID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos WHERE lote_id = $1`, loteID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count movimientos: %w", err)
	}
	return n, nil
}

// ResumenSaldo recalcula el agregado del lote desde sus movimientos.
func (r *MovimientoRepo) ResumenSaldo(ctx context.Context, loteID string) (*entity.ResumenSaldo, error) {
	query := `
		SELECT
			COALESCE(SUM(cantidad_kg) FILTER (WHERE tipo = 'entrada'), 0) AS entradas,
			COALESCE(SUM(cantidad_kg) FILTER (WHERE tipo = 'salida'), 0)  AS salidas,
			COUNT(*)                                                      AS num
		FROM movimientos WHERE lote_id = $1`
	resumen := entity.ResumenSaldo{LoteID: loteID}
	err := r.q.QueryRow(ctx, query, loteID).Scan(
		&resumen.TotalEntradas, &resumen.TotalSalidas, &resumen.NumMovimientos,
	)
	if err != nil {
		return nil, fmt.Errorf("resumen saldo: %w", err)
	}
	resumen.Saldo = resumen.TotalEntradas.Sub(resumen.TotalSalidas)
	return &resumen, nil
}
