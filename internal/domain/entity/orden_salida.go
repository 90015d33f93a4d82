package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de salida ya procesada por el motor.
const (
	OrdenSalidaConfirmada = "confirmada"
	OrdenSalidaCancelada  = "cancelada"
)

// OrdenSalida representa una venta/despacho ya asignada. Es dueña de sus
// asignaciones; los lotes solo quedan referenciados para consulta.
type OrdenSalida struct {
	ID        string
	TotalKg   decimal.Decimal
	Estado    string
	CreatedAt time.Time
}

// Asignacion es un retiro (lote, cantidad) que satisface parte de una orden
// de salida. Fija una vez confirmada la orden.
type Asignacion struct {
	ID            string
	OrdenSalidaID string
	LoteID        string
	CantidadKg    decimal.Decimal
	CreatedAt     time.Time
}
