package dto

import (
	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// SaldoConsolidadoResponse una fila de la agregación variedad × unidad.
type SaldoConsolidadoResponse struct {
	VariedadID string          `json:"variedad_id"`
	UnidadID   string          `json:"unidad_id"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	NumLotes   int             `json:"num_lotes"`
}

// FromConsolidado mapea la agregación al DTO de respuesta.
func FromConsolidado(filas []repository.SaldoConsolidado) []SaldoConsolidadoResponse {
	out := make([]SaldoConsolidadoResponse, 0, len(filas))
	for _, f := range filas {
		out = append(out, SaldoConsolidadoResponse{
			VariedadID: f.VariedadID,
			UnidadID:   f.UnidadID,
			TotalKg:    f.TotalKg,
			NumLotes:   f.NumLotes,
		})
	}
	return out
}
