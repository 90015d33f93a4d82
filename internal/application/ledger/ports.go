package ledger

import (
	"context"

	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad entre la verificación de
// saldo, el insert del movimiento y la actualización del lote.
// Compartido por los casos de uso de ledger, ciclo de vida y asignación.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		loteRepo repository.LoteRepository,
		movRepo repository.MovimientoRepository,
		ordenRepo repository.OrdenSalidaRepository,
	) error) error
}
