package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNoEncontrado        = errors.New("recurso no encontrado")
	ErrEntradaInvalida     = errors.New("entrada inválida")
	ErrDuplicado           = errors.New("recurso duplicado")
	ErrConflicto           = errors.New("conflicto con el estado actual")
	ErrCantidadInvalida    = errors.New("cantidad inválida")
	ErrSaldoInsuficiente   = errors.New("saldo insuficiente en el lote")
	ErrStockInsuficiente   = errors.New("stock insuficiente")
	ErrEstadoLoteInvalido  = errors.New("operación no permitida en el estado actual del lote")
	ErrLoteConMovimientos  = errors.New("el lote tiene movimientos registrados")
	ErrConflictoAsignacion = errors.New("conflicto de concurrencia al asignar lotes")
)

// StockInsuficienteError detalla el faltante cuando la asignación no puede
// cubrir la cantidad solicitada. errors.Is(err, ErrStockInsuficiente) == true.
type StockInsuficienteError struct {
	SolicitadoKg decimal.Decimal
	DisponibleKg decimal.Decimal
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("stock insuficiente: solicitado %s kg, disponible %s kg (faltan %s kg)",
		e.SolicitadoKg, e.DisponibleKg, e.FaltanteKg())
}

func (e *StockInsuficienteError) Unwrap() error { return ErrStockInsuficiente }

// FaltanteKg devuelve la cantidad que no pudo cubrirse.
func (e *StockInsuficienteError) FaltanteKg() decimal.Decimal {
	return e.SolicitadoKg.Sub(e.DisponibleKg)
}
