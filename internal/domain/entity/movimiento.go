package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento contra un lote.
const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
)

// Tipo de la orden que origina un movimiento.
const (
	OrdenTipoEntrada = "orden_entrada"
	OrdenTipoSalida  = "orden_salida"
)

// Movimiento es un asiento inmutable del libro de un lote (append-only):
// nunca se actualiza ni se borra una vez escrito.
type Movimiento struct {
	ID            string
	LoteID        string
	Tipo          string          // entrada | salida
	CantidadKg    decimal.Decimal // siempre > 0; el signo lo da Tipo
	OrdenOrigenID string
	TipoOrden     string // orden_entrada | orden_salida
	CreatedAt     time.Time
	CreatedBy     string // UserID
}

// ResumenSaldo es el agregado derivado del conjunto de movimientos de un lote.
// Invariante: Saldo = TotalEntradas - TotalSalidas >= 0.
type ResumenSaldo struct {
	LoteID         string
	TotalEntradas  decimal.Decimal
	TotalSalidas   decimal.Decimal
	Saldo          decimal.Decimal
	NumMovimientos int
}
