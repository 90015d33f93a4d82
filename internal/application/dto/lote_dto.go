package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
)

// CrearLoteRequest cuerpo de la finalización de una orden de entrada.
type CrearLoteRequest struct {
	NumeroLote       string          `json:"numero_lote"`
	VariedadID       string          `json:"variedad_id"`
	UnidadID         string          `json:"unidad_id"`
	OrdenEntradaID   string          `json:"orden_entrada_id"`
	CantidadOriginal int             `json:"cantidad_original"`
	KgOriginales     decimal.Decimal `json:"kg_originales"`
	FechaIngreso     *time.Time      `json:"fecha_ingreso,omitempty"`
}

// RegistrarMovimientoRequest cuerpo para entradas/salidas manuales sobre un lote.
type RegistrarMovimientoRequest struct {
	CantidadKg decimal.Decimal `json:"cantidad_kg"`
	OrdenID    string          `json:"orden_id"`
}

// CambiarEstadoRequest cuerpo del cambio manual de estado.
type CambiarEstadoRequest struct {
	Estado string `json:"estado"` // reservado | descartado
}

// LoteResponse representación HTTP de un lote.
type LoteResponse struct {
	ID               string          `json:"id"`
	NumeroLote       string          `json:"numero_lote"`
	VariedadID       string          `json:"variedad_id"`
	UnidadID         string          `json:"unidad_id"`
	OrdenEntradaID   string          `json:"orden_entrada_id"`
	CantidadOriginal int             `json:"cantidad_original"`
	KgOriginales     decimal.Decimal `json:"kg_originales"`
	Estado           string          `json:"estado"`
	SaldoKg          decimal.Decimal `json:"saldo_kg"`
	FechaIngreso     time.Time       `json:"fecha_ingreso"`
}

// ResumenSaldoResponse agregado derivado de los movimientos de un lote.
type ResumenSaldoResponse struct {
	TotalEntradas  decimal.Decimal `json:"total_entradas"`
	TotalSalidas   decimal.Decimal `json:"total_salidas"`
	Saldo          decimal.Decimal `json:"saldo"`
	NumMovimientos int             `json:"num_movimientos"`
}

// MovimientoResponse representación HTTP de un movimiento.
type MovimientoResponse struct {
	ID            string          `json:"id"`
	LoteID        string          `json:"lote_id"`
	Tipo          string          `json:"tipo"`
	CantidadKg    decimal.Decimal `json:"cantidad_kg"`
	OrdenOrigenID string          `json:"orden_origen_id"`
	TipoOrden     string          `json:"tipo_orden"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LoteConSaldoResponse lote anotado con su resumen para los listados.
type LoteConSaldoResponse struct {
	LoteResponse
	Resumen ResumenSaldoResponse `json:"resumen"`
}

// FromLote mapea la entidad al DTO de respuesta.
func FromLote(l *entity.Lote) LoteResponse {
	return LoteResponse{
		ID:               l.ID,
		NumeroLote:       l.NumeroLote,
		VariedadID:       l.VariedadID,
		UnidadID:         l.UnidadID,
		OrdenEntradaID:   l.OrdenEntradaID,
		CantidadOriginal: l.CantidadOriginal,
		KgOriginales:     l.KgOriginales,
		Estado:           l.Estado,
		SaldoKg:          l.SaldoKg,
		FechaIngreso:     l.FechaIngreso,
	}
}

// FromResumen mapea el agregado al DTO de respuesta.
func FromResumen(r *entity.ResumenSaldo) ResumenSaldoResponse {
	return ResumenSaldoResponse{
		TotalEntradas:  r.TotalEntradas,
		TotalSalidas:   r.TotalSalidas,
		Saldo:          r.Saldo,
		NumMovimientos: r.NumMovimientos,
	}
}

// FromMovimiento mapea la entidad al DTO de respuesta.
func FromMovimiento(m *entity.Movimiento) MovimientoResponse {
	return MovimientoResponse{
		ID:            m.ID,
		LoteID:        m.LoteID,
		Tipo:          m.Tipo,
		CantidadKg:    m.CantidadKg,
		OrdenOrigenID: m.OrdenOrigenID,
		TipoOrden:     m.TipoOrden,
		CreatedAt:     m.CreatedAt,
	}
}
