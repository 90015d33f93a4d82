package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	domledger "github.com/agrovalle/semillas-api/internal/domain/ledger"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// UseCase implementa el libro de movimientos: alta de lotes con su entrada
// inicial, entradas y salidas con bloqueo de fila (SELECT FOR UPDATE) y
// lecturas de saldo/historial.
type UseCase struct {
	txRunner TxRunner
	loteRepo repository.LoteRepository
	movRepo  repository.MovimientoRepository
}

// NewUseCase construye el caso de uso. loteRepo y movRepo se usan para
// lecturas fuera de transacción (pool); las escrituras pasan por txRunner.
func NewUseCase(txRunner TxRunner, loteRepo repository.LoteRepository, movRepo repository.MovimientoRepository) *UseCase {
	return &UseCase{txRunner: txRunner, loteRepo: loteRepo, movRepo: movRepo}
}

// CrearLoteInput parámetros de la finalización de una orden de entrada.
type CrearLoteInput struct {
	NumeroLote       string
	VariedadID       string
	UnidadID         string
	OrdenEntradaID   string
	CantidadOriginal int
	KgOriginales     decimal.Decimal
	FechaIngreso     time.Time
	UserID           string
}

// CrearLote crea el lote y su movimiento de entrada inicial en una sola
// transacción. El lote nace disponible con saldo igual a sus kg originales.
func (uc *UseCase) CrearLote(ctx context.Context, input CrearLoteInput) (*entity.Lote, error) {
	if input.NumeroLote == "" || input.VariedadID == "" || input.UnidadID == "" || input.OrdenEntradaID == "" {
		return nil, domain.ErrEntradaInvalida
	}
	if input.CantidadOriginal < 0 {
		return nil, domain.ErrEntradaInvalida
	}
	if !input.KgOriginales.GreaterThan(decimal.Zero) {
		return nil, domain.ErrCantidadInvalida
	}

	now := time.Now()
	fechaIngreso := input.FechaIngreso
	if fechaIngreso.IsZero() {
		fechaIngreso = now
	}
	lote := &entity.Lote{
		ID:               uuid.New().String(),
		NumeroLote:       input.NumeroLote,
		VariedadID:       input.VariedadID,
		UnidadID:         input.UnidadID,
		OrdenEntradaID:   input.OrdenEntradaID,
		CantidadOriginal: input.CantidadOriginal,
		KgOriginales:     input.KgOriginales,
		Estado:           entity.EstadoDisponible,
		SaldoKg:          input.KgOriginales,
		FechaIngreso:     fechaIngreso,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		if err := loteRepo.Create(ctx, lote); err != nil {
			return err
		}
		mov := &entity.Movimiento{
			ID:            uuid.New().String(),
			LoteID:        lote.ID,
			Tipo:          entity.MovimientoEntrada,
			CantidadKg:    input.KgOriginales,
			OrdenOrigenID: input.OrdenEntradaID,
			TipoOrden:     entity.OrdenTipoEntrada,
			CreatedAt:     now,
			CreatedBy:     input.UserID,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return lote, nil
}

// RegistrarEntrada agrega un movimiento de entrada al lote. Rechaza cantidades
// no positivas y lotes descartados. Bloquea la fila del lote para que el
// saldo cacheado y el movimiento se escriban atómicamente.
func (uc *UseCase) RegistrarEntrada(ctx context.Context, loteID string, cantidadKg decimal.Decimal, ordenID, userID string) error {
	if !cantidadKg.GreaterThan(decimal.Zero) {
		return domain.ErrCantidadInvalida
	}
	return uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		return RegistrarEntradaEnTx(ctx, loteRepo, movRepo, loteID, cantidadKg, ordenID, entity.OrdenTipoEntrada, userID)
	})
}

// RegistrarSalida agrega un movimiento de salida al lote. Rechaza cantidades
// no positivas, lotes vendidos/descartados y salidas que dejarían el saldo
// negativo; la verificación corre bajo el mismo bloqueo que el insert.
func (uc *UseCase) RegistrarSalida(ctx context.Context, loteID string, cantidadKg decimal.Decimal, ordenID, userID string) error {
	if !cantidadKg.GreaterThan(decimal.Zero) {
		return domain.ErrCantidadInvalida
	}
	return uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		_ repository.OrdenSalidaRepository,
	) error {
		return RegistrarSalidaEnTx(ctx, loteRepo, movRepo, loteID, cantidadKg, ordenID, userID)
	})
}

// SaldoDe devuelve el resumen de saldo recalculado desde los movimientos.
func (uc *UseCase) SaldoDe(ctx context.Context, loteID string) (*entity.ResumenSaldo, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if lote == nil {
		return nil, domain.ErrNoEncontrado
	}
	return uc.movRepo.ResumenSaldo(ctx, loteID)
}

// MovimientosDe lista el historial de un lote en orden estable (fecha, id).
func (uc *UseCase) MovimientosDe(ctx context.Context, loteID string, desde, hasta *time.Time, limit, offset int) ([]*entity.Movimiento, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if lote == nil {
		return nil, domain.ErrNoEncontrado
	}
	return uc.movRepo.ListByLote(ctx, loteID, desde, hasta, limit, offset)
}

// RegistrarEntradaEnTx aplica una entrada usando repositorios ya atados a la
// transacción del caller (la usa también la cancelación de asignaciones).
func RegistrarEntradaEnTx(
	ctx context.Context,
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoRepository,
	loteID string,
	cantidadKg decimal.Decimal,
	ordenID, tipoOrden, userID string,
) error {
	lote, err := loteRepo.GetForUpdate(ctx, loteID)
	if err != nil {
		return err
	}
	if lote == nil {
		return domain.ErrNoEncontrado
	}
	if !domledger.AdmiteEntrada(lote.Estado) {
		return domain.ErrEstadoLoteInvalido
	}
	nuevoSaldo := lote.SaldoKg.Add(cantidadKg)
	// Un movimiento sobre un lote reservado limpia la reserva: el estado
	// vuelve a derivarse del saldo.
	estado := domledger.DerivarEstado(nuevoSaldo, lote.KgOriginales)
	if err := loteRepo.UpdateSaldoEstado(ctx, loteID, nuevoSaldo, estado); err != nil {
		return err
	}
	mov := &entity.Movimiento{
		ID:            uuid.New().String(),
		LoteID:        loteID,
		Tipo:          entity.MovimientoEntrada,
		CantidadKg:    cantidadKg,
		OrdenOrigenID: ordenID,
		TipoOrden:     tipoOrden,
		CreatedAt:     time.Now(),
		CreatedBy:     userID,
	}
	return movRepo.Create(ctx, mov)
}

// RegistrarSalidaEnTx aplica una salida usando repositorios de la transacción
// del caller (la usa el motor de asignación lote por lote).
func RegistrarSalidaEnTx(
	ctx context.Context,
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoRepository,
	loteID string,
	cantidadKg decimal.Decimal,
	ordenID, userID string,
) error {
	lote, err := loteRepo.GetForUpdate(ctx, loteID)
	if err != nil {
		return err
	}
	if lote == nil {
		return domain.ErrNoEncontrado
	}
	if !domledger.AdmiteSalida(lote.Estado) {
		return domain.ErrEstadoLoteInvalido
	}
	if lote.SaldoKg.LessThan(cantidadKg) {
		return domain.ErrSaldoInsuficiente
	}
	nuevoSaldo := lote.SaldoKg.Sub(cantidadKg)
	estado := domledger.DerivarEstado(nuevoSaldo, lote.KgOriginales)
	if err := loteRepo.UpdateSaldoEstado(ctx, loteID, nuevoSaldo, estado); err != nil {
		return err
	}
	mov := &entity.Movimiento{
		ID:            uuid.New().String(),
		LoteID:        loteID,
		Tipo:          entity.MovimientoSalida,
		CantidadKg:    cantidadKg,
		OrdenOrigenID: ordenID,
		TipoOrden:     entity.OrdenTipoSalida,
		CreatedAt:     time.Now(),
		CreatedBy:     userID,
	}
	return movRepo.Create(ctx, mov)
}
