package query

import (
	"context"

	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// UseCase es el servicio de consultas de inventario: lecturas agregadas sobre
// el último estado comprometido, sin estado propio. Las decisiones de
// asignación no usan estas lecturas (el motor re-consulta dentro de su tx).
type UseCase struct {
	loteRepo repository.LoteRepository
	movRepo  repository.MovimientoRepository
	invRepo  repository.InventarioRepository
}

// NewUseCase construye el servicio de consultas.
func NewUseCase(
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoRepository,
	invRepo repository.InventarioRepository,
) *UseCase {
	return &UseCase{loteRepo: loteRepo, movRepo: movRepo, invRepo: invRepo}
}

// LoteConSaldo lote anotado con su resumen de saldo recalculado.
type LoteConSaldo struct {
	Lote    *entity.Lote
	Resumen *entity.ResumenSaldo
}

// ListarLotes lista lotes por variedad/unidad/estado/rango de fechas, cada
// uno con su resumen de saldo vigente.
func (uc *UseCase) ListarLotes(ctx context.Context, filtro repository.FiltroLotes) ([]LoteConSaldo, error) {
	if filtro.Limit <= 0 {
		filtro.Limit = 20
	}
	if filtro.Offset < 0 {
		filtro.Offset = 0
	}
	lotes, err := uc.loteRepo.List(ctx, filtro)
	if err != nil {
		return nil, err
	}
	resultado := make([]LoteConSaldo, 0, len(lotes))
	for _, lote := range lotes {
		resumen, err := uc.movRepo.ResumenSaldo(ctx, lote.ID)
		if err != nil {
			return nil, err
		}
		resultado = append(resultado, LoteConSaldo{Lote: lote, Resumen: resumen})
	}
	return resultado, nil
}

// ObtenerLote devuelve un lote con su resumen de saldo.
func (uc *UseCase) ObtenerLote(ctx context.Context, loteID string) (*LoteConSaldo, error) {
	lote, err := uc.loteRepo.GetByID(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if lote == nil {
		return nil, domain.ErrNoEncontrado
	}
	resumen, err := uc.movRepo.ResumenSaldo(ctx, lote.ID)
	if err != nil {
		return nil, err
	}
	return &LoteConSaldo{Lote: lote, Resumen: resumen}, nil
}

// InventarioConsolidado agrupa los saldos por variedad × unidad (reportes).
func (uc *UseCase) InventarioConsolidado(ctx context.Context, variedadID, unidadID string) ([]repository.SaldoConsolidado, error) {
	return uc.invRepo.Consolidado(ctx, variedadID, unidadID)
}
