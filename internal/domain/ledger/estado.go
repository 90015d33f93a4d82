package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
)

// DerivarEstado calcula el estado de un lote a partir de su saldo y sus kg
// originales (servicio de dominio, función pura):
//
//	saldo == 0            -> vendido
//	0 < saldo < original  -> parcialmente_vendido
//	saldo >= original     -> disponible
//
// Los estados manuales (reservado, descartado) no se derivan aquí.
func DerivarEstado(saldoKg, kgOriginales decimal.Decimal) string {
	if saldoKg.LessThanOrEqual(decimal.Zero) {
		return entity.EstadoVendido
	}
	if saldoKg.LessThan(kgOriginales) {
		return entity.EstadoParcialmenteVendido
	}
	return entity.EstadoDisponible
}

// AdmiteEntrada indica si el lote acepta nuevos movimientos de entrada.
// Solo descartado es terminal para entradas: una entrada compensatoria
// (cancelación de venta) es válida incluso sobre un lote vendido.
func AdmiteEntrada(estado string) bool {
	return estado != entity.EstadoDescartado
}

// AdmiteSalida indica si el lote acepta movimientos de salida.
func AdmiteSalida(estado string) bool {
	return estado != entity.EstadoVendido && estado != entity.EstadoDescartado
}

// PuedeReservarse indica si el lote admite la reserva manual (advisoria).
func PuedeReservarse(estado string) bool {
	return estado == entity.EstadoDisponible || estado == entity.EstadoParcialmenteVendido
}

// PuedeDescartarse indica si el lote admite el descarte manual.
// Un lote vendido no se descarta; un lote descartado ya es terminal.
func PuedeDescartarse(estado string) bool {
	return estado != entity.EstadoVendido && estado != entity.EstadoDescartado
}

// EsAsignable indica si el lote puede participar como candidato de una
// asignación de salida.
func EsAsignable(estado string) bool {
	return estado == entity.EstadoDisponible || estado == entity.EstadoParcialmenteVendido
}
