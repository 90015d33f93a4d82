package lifecycle

import (
	"context"

	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	domledger "github.com/agrovalle/semillas-api/internal/domain/ledger"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// UseCase administra las transiciones manuales del ciclo de vida de un lote
// (reserva, descarte, liberación de reserva) y el contrato de borrado.
// Las transiciones derivadas del saldo corren junto a cada movimiento en el
// caso de uso de ledger.
type UseCase struct {
	txRunner ledger.TxRunner
	loteRepo repository.LoteRepository
}

// NewUseCase construye el caso de uso de ciclo de vida.
func NewUseCase(txRunner ledger.TxRunner, loteRepo repository.LoteRepository) *UseCase {
	return &UseCase{txRunner: txRunner, loteRepo: loteRepo}
}

// CambiarEstado aplica una transición manual y devuelve el estado resultante.
// Solo reservado y descartado se fijan a mano; el resto se deriva del saldo.
//   - descartado: permitido desde cualquier estado no vendido; terminal.
//   - reservado: solo desde disponible/parcialmente_vendido; no toca el saldo.
func (uc *UseCase) CambiarEstado(ctx context.Context, loteID, destino string) (string, error) {
	switch destino {
	case entity.EstadoReservado, entity.EstadoDescartado:
	default:
		return "", domain.ErrEntradaInvalida
	}
	var resultado string
	err := uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		_ repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		lote, err := loteRepo.GetForUpdate(ctx, loteID)
		if err != nil {
			return err
		}
		if lote == nil {
			return domain.ErrNoEncontrado
		}
		switch destino {
		case entity.EstadoReservado:
			if !domledger.PuedeReservarse(lote.Estado) {
				return domain.ErrEstadoLoteInvalido
			}
		case entity.EstadoDescartado:
			if !domledger.PuedeDescartarse(lote.Estado) {
				return domain.ErrEstadoLoteInvalido
			}
		}
		if err := loteRepo.UpdateEstado(ctx, loteID, destino); err != nil {
			return err
		}
		resultado = destino
		return nil
	})
	return resultado, err
}

// LiberarReserva limpia la reserva advisoria y devuelve el lote a su estado
// derivado del saldo. Falla si el lote no está reservado.
func (uc *UseCase) LiberarReserva(ctx context.Context, loteID string) (string, error) {
	var resultado string
	err := uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		_ repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		lote, err := loteRepo.GetForUpdate(ctx, loteID)
		if err != nil {
			return err
		}
		if lote == nil {
			return domain.ErrNoEncontrado
		}
		if lote.Estado != entity.EstadoReservado {
			return domain.ErrEstadoLoteInvalido
		}
		derivado := domledger.DerivarEstado(lote.SaldoKg, lote.KgOriginales)
		if err := loteRepo.UpdateEstado(ctx, loteID, derivado); err != nil {
			return err
		}
		resultado = derivado
		return nil
	})
	return resultado, err
}

// EliminarLote borra un lote sin historia. Un lote vendido nunca se borra;
// cualquier lote con movimientos tampoco (se conserva la trazabilidad).
func (uc *UseCase) EliminarLote(ctx context.Context, loteID string) error {
	return uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		lote, err := loteRepo.GetForUpdate(ctx, loteID)
		if err != nil {
			return err
		}
		if lote == nil {
			return domain.ErrNoEncontrado
		}
		if lote.Estado == entity.EstadoVendido {
			return domain.ErrEstadoLoteInvalido
		}
		n, err := movRepo.CountByLote(ctx, loteID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrLoteConMovimientos
		}
		return loteRepo.Delete(ctx, loteID)
	})
}
