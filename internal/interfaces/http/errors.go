package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agrovalle/semillas-api/internal/application/dto"
	"github.com/agrovalle/semillas-api/internal/domain"
)

// respondError mapea los errores de dominio a códigos HTTP. El faltante de
// una asignación rechazada viaja en el cuerpo para que el caller pueda
// ajustar la cantidad.
func respondError(c *fiber.Ctx, err error) error {
	var stockErr *domain.StockInsuficienteError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.StockInsuficienteResponse{
			Code:         "INSUFFICIENT_STOCK",
			Message:      stockErr.Error(),
			SolicitadoKg: stockErr.SolicitadoKg,
			DisponibleKg: stockErr.DisponibleKg,
			FaltanteKg:   stockErr.FaltanteKg(),
		})
	}
	switch {
	case errors.Is(err, domain.ErrNoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrEntradaInvalida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrCantidadInvalida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser mayor a cero"})
	case errors.Is(err, domain.ErrDuplicado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrSaldoInsuficiente):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_BALANCE", Message: "saldo insuficiente en el lote"})
	case errors.Is(err, domain.ErrStockInsuficiente):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrEstadoLoteInvalido):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_LOT_STATUS", Message: "operación no permitida en el estado actual del lote"})
	case errors.Is(err, domain.ErrLoteConMovimientos):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOT_HAS_MOVEMENTS", Message: "el lote tiene movimientos registrados"})
	case errors.Is(err, domain.ErrConflictoAsignacion):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALLOCATION_CONFLICT", Message: "contención al asignar lotes, reintente"})
	case errors.Is(err, domain.ErrConflicto):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
