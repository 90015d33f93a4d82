package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovalle/semillas-api/internal/application/dto"
	"github.com/agrovalle/semillas-api/internal/application/query"
)

// InventarioHandler lecturas agregadas del inventario (reportes).
type InventarioHandler struct {
	uc *query.UseCase
}

// NewInventarioHandler construye el handler.
func NewInventarioHandler(uc *query.UseCase) *InventarioHandler {
	return &InventarioHandler{uc: uc}
}

// Consolidado godoc
// @Summary      Inventario consolidado por variedad × unidad
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        variedad_id  query  string  false  "Filtrar por variedad"
// @Param        unidad_id    query  string  false  "Filtrar por unidad"
// @Success      200  {array}   dto.SaldoConsolidadoResponse
// @Router       /api/inventario/consolidado [get]
func (h *InventarioHandler) Consolidado(c *fiber.Ctx) error {
	filas, err := h.uc.InventarioConsolidado(c.Context(), c.Query("variedad_id"), c.Query("unidad_id"))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.FromConsolidado(filas)
	return c.JSON(fiber.Map{"total": len(out), "saldos": out})
}
