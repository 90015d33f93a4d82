package dto

import (
	"github.com/shopspring/decimal"
)

// AsignarRequest cuerpo de la finalización de una orden de salida.
type AsignarRequest struct {
	OrdenSalidaID   string          `json:"orden_salida_id"`
	VariedadID      string          `json:"variedad_id"`
	UnidadID        string          `json:"unidad_id"`
	CantidadKg      decimal.Decimal `json:"cantidad_kg"`
	LotesPreferidos []string        `json:"lotes_preferidos,omitempty"`
}

// RetiroResponse un (lote, cantidad) de la asignación resultante.
type RetiroResponse struct {
	LoteID     string          `json:"lote_id"`
	NumeroLote string          `json:"numero_lote"`
	CantidadKg decimal.Decimal `json:"cantidad_kg"`
}

// AsignarResponse resultado de una asignación confirmada.
type AsignarResponse struct {
	OrdenSalidaID string           `json:"orden_salida_id"`
	TotalKg       decimal.Decimal  `json:"total_kg"`
	Retiros       []RetiroResponse `json:"retiros"`
}

// StockInsuficienteResponse detalle del rechazo por stock insuficiente.
type StockInsuficienteResponse struct {
	Code         string          `json:"code"`
	Message      string          `json:"message"`
	SolicitadoKg decimal.Decimal `json:"solicitado_kg"`
	DisponibleKg decimal.Decimal `json:"disponible_kg"`
	FaltanteKg   decimal.Decimal `json:"faltante_kg"`
}
