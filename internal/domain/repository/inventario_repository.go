package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// SaldoConsolidado resultado crudo de la agregación variedad × unidad.
type SaldoConsolidado struct {
	VariedadID string
	UnidadID   string
	TotalKg    decimal.Decimal
	NumLotes   int
}

// InventarioRepository define el puerto de lectura agregada del inventario.
// Solo lecturas sobre el último estado comprometido; no mantiene estado propio.
type InventarioRepository interface {
	// Consolidado suma los saldos cacheados agrupando por variedad y unidad.
	// variedadID/unidadID vacíos no filtran.
	Consolidado(ctx context.Context, variedadID, unidadID string) ([]SaldoConsolidado, error)
}
