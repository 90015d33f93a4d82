package allocation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	domledger "github.com/agrovalle/semillas-api/internal/domain/ledger"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// Presupuesto de reintentos ante contención entre asignaciones concurrentes.
const (
	maxIntentos = 3
	esperaBase  = 25 * time.Millisecond
)

// UseCase es el motor de asignación: satisface la cantidad solicitada por una
// orden de salida retirando de uno o más lotes de la variedad/unidad pedidas,
// todo-o-nada dentro de una sola transacción.
type UseCase struct {
	txRunner ledger.TxRunner
}

// NewUseCase construye el motor de asignación.
func NewUseCase(txRunner ledger.TxRunner) *UseCase {
	return &UseCase{txRunner: txRunner}
}

// AsignarInput parámetros de la finalización de una orden de salida.
type AsignarInput struct {
	OrdenSalidaID   string
	VariedadID      string
	UnidadID        string
	CantidadKg      decimal.Decimal
	LotesPreferidos []string // se drenan primero, en el orden dado
	UserID          string
}

// Retiro es un (lote, cantidad) de la asignación resultante.
type Retiro struct {
	LoteID     string
	NumeroLote string
	CantidadKg decimal.Decimal
}

// errReintentar señala que el intento perdió la carrera contra otro escritor
// y debe repetirse sobre un conjunto de candidatos fresco.
var errReintentar = errors.New("candidatos desactualizados, reintentar")

// Asignar selecciona lotes candidatos (preferidos primero, luego FIFO por
// fecha de ingreso), retira greedy hasta cubrir la cantidad y confirma la
// orden. Si el saldo total disponible no alcanza, no se escribe nada y
// retorna StockInsuficienteError con el faltante. Ante contención reintenta
// hasta maxIntentos con backoff y luego retorna ErrConflictoAsignacion.
func (uc *UseCase) Asignar(ctx context.Context, input AsignarInput) ([]Retiro, error) {
	if input.OrdenSalidaID == "" || input.VariedadID == "" || input.UnidadID == "" {
		return nil, domain.ErrEntradaInvalida
	}
	if !input.CantidadKg.GreaterThan(decimal.Zero) {
		return nil, domain.ErrCantidadInvalida
	}

	var retiros []Retiro
	for intento := 0; intento < maxIntentos; intento++ {
		if intento > 0 {
			espera := esperaBase << (intento - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(espera):
			}
		}
		err := uc.txRunner.Run(ctx, func(
			loteRepo repository.LoteRepository,
			movRepo repository.MovimientoRepository,
			ordenRepo repository.OrdenSalidaRepository,
		) error {
			var err error
			retiros, err = uc.asignarEnTx(ctx, loteRepo, movRepo, ordenRepo, input)
			return err
		})
		if errors.Is(err, errReintentar) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return retiros, nil
	}
	return nil, domain.ErrConflictoAsignacion
}

// asignarEnTx corre un intento completo dentro de la transacción: planifica
// sobre candidatos frescos, bloquea los lotes elegidos en orden ascendente de
// id (evita deadlocks entre asignaciones cruzadas), revalida saldos bajo
// bloqueo y recién entonces escribe movimientos, asignaciones y la orden.
func (uc *UseCase) asignarEnTx(
	ctx context.Context,
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoRepository,
	ordenRepo repository.OrdenSalidaRepository,
	input AsignarInput,
) ([]Retiro, error) {
	candidatos, err := loteRepo.Candidatos(ctx, input.VariedadID, input.UnidadID)
	if err != nil {
		return nil, err
	}
	ordenados := ordenarCandidatos(candidatos, input.LotesPreferidos)

	plan, disponible := planificar(ordenados, input.CantidadKg)
	if disponible.LessThan(input.CantidadKg) {
		return nil, &domain.StockInsuficienteError{
			SolicitadoKg: input.CantidadKg,
			DisponibleKg: disponible,
		}
	}

	// Bloquear en orden ascendente de id, no en orden de retiro.
	bloqueo := make([]string, 0, len(plan))
	for id := range plan {
		bloqueo = append(bloqueo, id)
	}
	sort.Strings(bloqueo)

	bloqueados := make(map[string]*entity.Lote, len(plan))
	for _, id := range bloqueo {
		lote, err := loteRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		// Otro escritor drenó o descartó el lote entre la consulta y el
		// bloqueo: el plan ya no es válido.
		if lote == nil || !domledger.EsAsignable(lote.Estado) || lote.SaldoKg.LessThan(plan[id]) {
			return nil, errReintentar
		}
		bloqueados[id] = lote
	}

	now := time.Now()
	orden := &entity.OrdenSalida{
		ID:        input.OrdenSalidaID,
		TotalKg:   input.CantidadKg,
		Estado:    entity.OrdenSalidaConfirmada,
		CreatedAt: now,
	}
	if err := ordenRepo.Create(ctx, orden); err != nil {
		return nil, err
	}

	retiros := make([]Retiro, 0, len(plan))
	// Escribir en el orden de retiro (preferidos/FIFO) para que el historial
	// refleje la política de selección.
	for _, lote := range ordenados {
		cantidad, ok := plan[lote.ID]
		if !ok {
			continue
		}
		if err := ledger.RegistrarSalidaEnTx(ctx, loteRepo, movRepo, lote.ID, cantidad, input.OrdenSalidaID, input.UserID); err != nil {
			return nil, err
		}
		asig := &entity.Asignacion{
			ID:            uuid.New().String(),
			OrdenSalidaID: input.OrdenSalidaID,
			LoteID:        lote.ID,
			CantidadKg:    cantidad,
			CreatedAt:     now,
		}
		if err := ordenRepo.CreateAsignacion(ctx, asig); err != nil {
			return nil, err
		}
		retiros = append(retiros, Retiro{
			LoteID:     lote.ID,
			NumeroLote: bloqueados[lote.ID].NumeroLote,
			CantidadKg: cantidad,
		})
	}
	return retiros, nil
}

// Cancelar revierte las asignaciones de una orden confirmada registrando
// entradas compensatorias (las salidas originales nunca se tocan: el
// historial queda completo). La orden pasa a cancelada.
func (uc *UseCase) Cancelar(ctx context.Context, ordenSalidaID, userID string) error {
	return uc.txRunner.Run(ctx, func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		ordenRepo repository.OrdenSalidaRepository,
	) error {
		orden, err := ordenRepo.GetByID(ctx, ordenSalidaID)
		if err != nil {
			return err
		}
		if orden == nil {
			return domain.ErrNoEncontrado
		}
		if orden.Estado != entity.OrdenSalidaConfirmada {
			return domain.ErrConflicto
		}
		asignaciones, err := ordenRepo.ListAsignaciones(ctx, ordenSalidaID)
		if err != nil {
			return err
		}
		// Mismo orden de bloqueo que Asignar.
		sort.Slice(asignaciones, func(i, j int) bool {
			return asignaciones[i].LoteID < asignaciones[j].LoteID
		})
		for _, a := range asignaciones {
			if err := ledger.RegistrarEntradaEnTx(ctx, loteRepo, movRepo, a.LoteID, a.CantidadKg, ordenSalidaID, entity.OrdenTipoSalida, userID); err != nil {
				return err
			}
		}
		return ordenRepo.UpdateEstado(ctx, ordenSalidaID, entity.OrdenSalidaCancelada)
	})
}

// ordenarCandidatos antepone los lotes preferidos (en el orden dado) al resto
// de los candidatos, que ya vienen en orden FIFO del repositorio.
func ordenarCandidatos(candidatos []*entity.Lote, preferidos []string) []*entity.Lote {
	if len(preferidos) == 0 {
		return candidatos
	}
	porID := make(map[string]*entity.Lote, len(candidatos))
	for _, l := range candidatos {
		porID[l.ID] = l
	}
	resultado := make([]*entity.Lote, 0, len(candidatos))
	usado := make(map[string]bool, len(preferidos))
	for _, id := range preferidos {
		if l, ok := porID[id]; ok && !usado[id] {
			resultado = append(resultado, l)
			usado[id] = true
		}
	}
	for _, l := range candidatos {
		if !usado[l.ID] {
			resultado = append(resultado, l)
		}
	}
	return resultado
}

// planificar recorre los candidatos en orden retirando min(demanda, saldo) de
// cada uno. Devuelve el plan por lote y el total cubierto.
func planificar(candidatos []*entity.Lote, solicitado decimal.Decimal) (map[string]decimal.Decimal, decimal.Decimal) {
	plan := make(map[string]decimal.Decimal)
	cubierto := decimal.Zero
	restante := solicitado
	for _, lote := range candidatos {
		if !restante.GreaterThan(decimal.Zero) {
			break
		}
		retiro := decimal.Min(restante, lote.SaldoKg)
		if !retiro.GreaterThan(decimal.Zero) {
			continue
		}
		plan[lote.ID] = retiro
		cubierto = cubierto.Add(retiro)
		restante = restante.Sub(retiro)
	}
	return plan, cubierto
}
