package postgres

import (
	"context"
	"fmt"

	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

var _ repository.InventarioRepository = (*InventarioRepo)(nil)

// InventarioRepo lecturas agregadas del inventario sobre PostgreSQL.
type InventarioRepo struct {
	q Querier
}

// NewInventarioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventarioRepository(q Querier) *InventarioRepo {
	return &InventarioRepo{q: q}
}

// Consolidado suma los saldos cacheados agrupando por variedad y unidad.
// Excluye lotes descartados: su saldo remanente no es vendible.
func (r *InventarioRepo) Consolidado(ctx context.Context, variedadID, unidadID string) ([]repository.SaldoConsolidado, error) {
	query := `
		SELECT variedad_id, unidad_id, COALESCE(SUM(saldo_kg), 0) AS total_kg, COUNT(*) AS num_lotes
		FROM lotes
		WHERE estado <> 'descartado'`
	args := []any{}
	pos := 1
	if variedadID != "" {
		query += fmt.Sprintf(" AND variedad_id = $%d", pos)
		args = append(args, variedadID)
		pos++
	}
	if unidadID != "" {
		query += fmt.Sprintf(" AND unidad_id = $%d", pos)
		args = append(args, unidadID)
		pos++
	}
	query += " GROUP BY variedad_id, unidad_id ORDER BY variedad_id, unidad_id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("consolidado: %w", err)
	}
	defer rows.Close()
	var filas []repository.SaldoConsolidado
	for rows.Next() {
		var f repository.SaldoConsolidado
		if err := rows.Scan(&f.VariedadID, &f.UnidadID, &f.TotalKg, &f.NumLotes); err != nil {
			return nil, fmt.Errorf("scan consolidado: %w", err)
		}
		filas = append(filas, f)
	}
	return filas, rows.Err()
}
