package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovalle/semillas-api/internal/application/allocation"
	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/application/lifecycle"
	"github.com/agrovalle/semillas-api/internal/application/query"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC    *ledger.UseCase
	LifecycleUC *lifecycle.UseCase
	AllocUC     *allocation.UseCase
	QueryUC     *query.UseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Todo el motor exige Bearer Token: la
// identidad del caller la provee el servicio de autenticación externo.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	loteHandler := NewLoteHandler(deps.LedgerUC, deps.LifecycleUC, deps.QueryUC)
	lotes := api.Group("/lotes")
	lotes.Post("/", loteHandler.Crear)
	lotes.Get("/", loteHandler.Listar)
	lotes.Get("/:id", loteHandler.GetByID)
	// El borrado queda restringido a admin; el contrato de borrado del motor
	// aplica igual para cualquier rol.
	lotes.Delete("/:id", RequireRol("admin"), loteHandler.Eliminar)
	lotes.Patch("/:id/estado", loteHandler.CambiarEstado)
	lotes.Post("/:id/liberar-reserva", loteHandler.LiberarReserva)
	lotes.Post("/:id/entradas", loteHandler.RegistrarEntrada)
	lotes.Post("/:id/salidas", loteHandler.RegistrarSalida)
	lotes.Get("/:id/movimientos", loteHandler.Movimientos)
	lotes.Get("/:id/saldo", loteHandler.Saldo)

	asignacionHandler := NewAsignacionHandler(deps.AllocUC)
	asignaciones := api.Group("/asignaciones")
	asignaciones.Post("/", asignacionHandler.Asignar)
	asignaciones.Post("/:ordenId/cancelar", asignacionHandler.Cancelar)

	inventarioHandler := NewInventarioHandler(deps.QueryUC)
	inventario := api.Group("/inventario")
	inventario.Get("/consolidado", inventarioHandler.Consolidado)
}
