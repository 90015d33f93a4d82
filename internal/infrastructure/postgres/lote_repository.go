package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

var _ repository.LoteRepository = (*LoteRepo)(nil)

const loteColumns = `id, numero_lote, variedad_id, unidad_id, orden_entrada_id,
		cantidad_original, kg_originales, estado, saldo_kg, fecha_ingreso, created_at, updated_at`

// LoteRepo implementación de LoteRepository sobre PostgreSQL (usable con pool o tx).
type LoteRepo struct {
	q Querier
}

// NewLoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoteRepository(q Querier) *LoteRepo {
	return &LoteRepo{q: q}
}

// Create persiste el lote. Un numero_lote repetido retorna ErrDuplicado.
func (r *LoteRepo) Create(ctx context.Context, lote *entity.Lote) error {
	query := `
		INSERT INTO lotes (id, numero_lote, variedad_id, unidad_id, orden_entrada_id,
			cantidad_original, kg_originales, estado, saldo_kg, fecha_ingreso, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		lote.ID, lote.NumeroLote, lote.VariedadID, lote.UnidadID, lote.OrdenEntradaID,
		lote.CantidadOriginal, lote.KgOriginales, lote.Estado, lote.SaldoKg,
		lote.FechaIngreso, lote.CreatedAt, lote.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicado
		}
		return fmt.Errorf("create lote: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID. Retorna nil si no existe.
func (r *LoteRepo) GetByID(ctx context.Context, id string) (*entity.Lote, error) {
	query := `SELECT ` + loteColumns + ` FROM lotes WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get lote")
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LoteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lote, error) {
	query := `SELECT ` + loteColumns + ` FROM lotes WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get lote for update")
}

// UpdateSaldoEstado actualiza el saldo cacheado y el estado en conjunto.
func (r *LoteRepo) UpdateSaldoEstado(ctx context.Context, id string, saldoKg decimal.Decimal, estado string) error {
	query := `UPDATE lotes SET saldo_kg = $2, estado = $3, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, saldoKg, estado)
	if err != nil {
		return fmt.Errorf("update saldo/estado lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoEncontrado
	}
	return nil
}

// UpdateEstado cambia solo el estado (transición manual).
func (r *LoteRepo) UpdateEstado(ctx context.Context, id string, estado string) error {
	query := `UPDATE lotes SET estado = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, estado)
	if err != nil {
		return fmt.Errorf("update estado lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoEncontrado
	}
	return nil
}

// Delete borra el lote. El contrato de borrado (sin movimientos, no vendido)
// se valida en el caso de uso, dentro de la misma transacción.
func (r *LoteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM lotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoEncontrado
	}
	return nil
}

// List lista lotes según filtro, más recientes primero.
func (r *LoteRepo) List(ctx context.Context, filtro repository.FiltroLotes) ([]*entity.Lote, error) {
	query := `SELECT ` + loteColumns + ` FROM lotes WHERE 1=1`
	args := []any{}
	pos := 1
	if filtro.VariedadID != "" {
		query += fmt.Sprintf(" AND variedad_id = $%d", pos)
		args = append(args, filtro.VariedadID)
		pos++
	}
	if filtro.UnidadID != "" {
		query += fmt.Sprintf(" AND unidad_id = $%d", pos)
		args = append(args, filtro.UnidadID)
		pos++
	}
	if filtro.Estado != "" {
		query += fmt.Sprintf(" AND estado = $%d", pos)
		args = append(args, filtro.Estado)
		pos++
	}
	if filtro.Desde != nil {
		query += fmt.Sprintf(" AND fecha_ingreso >= $%d", pos)
		args = append(args, *filtro.Desde)
		pos++
	}
	if filtro.Hasta != nil {
		query += fmt.Sprintf(" AND fecha_ingreso <= $%d", pos)
		args = append(args, *filtro.Hasta)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY fecha_ingreso DESC, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filtro.Limit, filtro.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lotes: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Candidatos devuelve los lotes asignables de la variedad y unidad en orden
// FIFO por fecha de ingreso (desempate estable por id).
func (r *LoteRepo) Candidatos(ctx context.Context, variedadID, unidadID string) ([]*entity.Lote, error) {
	query := `
		SELECT ` + loteColumns + `
		FROM lotes
		WHERE variedad_id = $1 AND unidad_id = $2
		  AND estado IN ($3, $4)
		  AND saldo_kg > 0
		ORDER BY fecha_ingreso ASC, id ASC`
	rows, err := r.q.Query(ctx, query, variedadID, unidadID,
		entity.EstadoDisponible, entity.EstadoParcialmenteVendido)
	if err != nil {
		return nil, fmt.Errorf("candidatos: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *LoteRepo) scanOne(row pgx.Row, op string) (*entity.Lote, error) {
	var l entity.Lote
	err := row.Scan(
		&l.ID, &l.NumeroLote, &l.VariedadID, &l.UnidadID, &l.OrdenEntradaID,
		&l.CantidadOriginal, &l.KgOriginales, &l.Estado, &l.SaldoKg,
		&l.FechaIngreso, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

func (r *LoteRepo) scanAll(rows pgx.Rows) ([]*entity.Lote, error) {
	var list []*entity.Lote
	for rows.Next() {
		var l entity.Lote
		if err := rows.Scan(
			&l.ID, &l.NumeroLote, &l.VariedadID, &l.UnidadID, &l.OrdenEntradaID,
			&l.CantidadOriginal, &l.KgOriginales, &l.Estado, &l.SaldoKg,
			&l.FechaIngreso, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lote: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
