package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
)

// FiltroLotes filtros de listado para el servicio de consultas.
// Los campos vacíos/nil no filtran.
type FiltroLotes struct {
	VariedadID string
	UnidadID   string
	Estado     string
	Desde      *time.Time
	Hasta      *time.Time
	Limit      int
	Offset     int
}

// LoteRepository define el puerto de persistencia para lotes.
// Usado dentro de transacciones para garantizar consistencia del saldo cacheado.
type LoteRepository interface {
	Create(ctx context.Context, lote *entity.Lote) error
	GetByID(ctx context.Context, id string) (*entity.Lote, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE). Solo tiene
	// sentido dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Lote, error)
	// UpdateSaldoEstado actualiza el saldo cacheado y el estado en conjunto,
	// en la misma transacción que inserta el movimiento correspondiente.
	UpdateSaldoEstado(ctx context.Context, id string, saldoKg decimal.Decimal, estado string) error
	// UpdateEstado cambia solo el estado (transiciones manuales: no toca saldo).
	UpdateEstado(ctx context.Context, id string, estado string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filtro FiltroLotes) ([]*entity.Lote, error)
	// Candidatos devuelve los lotes asignables (disponible/parcialmente_vendido,
	// saldo > 0) de la variedad y unidad dadas, en orden FIFO por fecha de
	// ingreso (desempate por id).
	Candidatos(ctx context.Context, variedadID, unidadID string) ([]*entity.Lote, error)
}
