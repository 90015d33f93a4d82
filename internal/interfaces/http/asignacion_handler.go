package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovalle/semillas-api/internal/application/allocation"
	"github.com/agrovalle/semillas-api/internal/application/dto"
)

// AsignacionHandler maneja la finalización y cancelación de órdenes de salida.
type AsignacionHandler struct {
	uc *allocation.UseCase
}

// NewAsignacionHandler construye el handler.
func NewAsignacionHandler(uc *allocation.UseCase) *AsignacionHandler {
	return &AsignacionHandler{uc: uc}
}

// Asignar godoc
// @Summary      Finalizar orden de salida: asignar lotes para la cantidad pedida
// @Description  Selecciona lotes (preferidos primero, luego FIFO por fecha de
//	ingreso) y confirma todo-o-nada. Si el stock no alcanza, responde 409 con
//	el faltante y no escribe nada.
// @Tags         asignaciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AsignarRequest  true  "orden_salida_id, variedad_id, unidad_id, cantidad_kg, lotes_preferidos"
// @Success      201   {object}  dto.AsignarResponse
// @Failure      409   {object}  dto.StockInsuficienteResponse
// @Router       /api/asignaciones [post]
func (h *AsignacionHandler) Asignar(c *fiber.Ctx) error {
	var in dto.AsignarRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	retiros, err := h.uc.Asignar(c.Context(), allocation.AsignarInput{
		OrdenSalidaID:   in.OrdenSalidaID,
		VariedadID:      in.VariedadID,
		UnidadID:        in.UnidadID,
		CantidadKg:      in.CantidadKg,
		LotesPreferidos: in.LotesPreferidos,
		UserID:          GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.AsignarResponse{
		OrdenSalidaID: in.OrdenSalidaID,
		TotalKg:       in.CantidadKg,
		Retiros:       make([]dto.RetiroResponse, 0, len(retiros)),
	}
	for _, r := range retiros {
		out.Retiros = append(out.Retiros, dto.RetiroResponse{
			LoteID:     r.LoteID,
			NumeroLote: r.NumeroLote,
			CantidadKg: r.CantidadKg,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Cancelar revierte las asignaciones de una orden con entradas compensatorias.
func (h *AsignacionHandler) Cancelar(c *fiber.Ctx) error {
	if err := h.uc.Cancelar(c.Context(), c.Params("ordenId"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden cancelada"})
}
