package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un lote.
const (
	EstadoDisponible          = "disponible"
	EstadoReservado           = "reservado"
	EstadoParcialmenteVendido = "parcialmente_vendido"
	EstadoVendido             = "vendido"
	EstadoDescartado          = "descartado" // terminal, fijado manualmente
)

// Lote representa una partida física de semilla acondicionada.
// KgOriginales es inmutable después de la creación; SaldoKg es el saldo
// cacheado que se actualiza atómicamente con cada movimiento.
type Lote struct {
	ID               string
	NumeroLote       string // asignado por planta, único
	VariedadID       string
	UnidadID         string
	OrdenEntradaID   string // orden de ingreso que originó el lote
	CantidadOriginal int    // bolsas/envases
	KgOriginales     decimal.Decimal
	Estado           string
	SaldoKg          decimal.Decimal
	FechaIngreso     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
