package repository

import (
	"context"

	"github.com/agrovalle/semillas-api/internal/domain/entity"
)

// OrdenSalidaRepository define el puerto de persistencia para órdenes de
// salida y sus asignaciones. Las asignaciones pertenecen a la orden.
type OrdenSalidaRepository interface {
	Create(ctx context.Context, orden *entity.OrdenSalida) error
	GetByID(ctx context.Context, id string) (*entity.OrdenSalida, error)
	UpdateEstado(ctx context.Context, id string, estado string) error
	CreateAsignacion(ctx context.Context, a *entity.Asignacion) error
	ListAsignaciones(ctx context.Context, ordenSalidaID string) ([]*entity.Asignacion, error)
}
