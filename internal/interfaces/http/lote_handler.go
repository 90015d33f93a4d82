package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agrovalle/semillas-api/internal/application/dto"
	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/application/lifecycle"
	"github.com/agrovalle/semillas-api/internal/application/query"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// LoteHandler maneja las peticiones HTTP de lotes y su libro de movimientos.
type LoteHandler struct {
	ledgerUC    *ledger.UseCase
	lifecycleUC *lifecycle.UseCase
	queryUC     *query.UseCase
}

// NewLoteHandler construye el handler.
func NewLoteHandler(ledgerUC *ledger.UseCase, lifecycleUC *lifecycle.UseCase, queryUC *query.UseCase) *LoteHandler {
	return &LoteHandler{ledgerUC: ledgerUC, lifecycleUC: lifecycleUC, queryUC: queryUC}
}

// Crear godoc
// @Summary      Finalizar orden de entrada: crear lote con su entrada inicial
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CrearLoteRequest  true  "numero_lote, variedad_id, unidad_id, orden_entrada_id, kg_originales"
// @Success      201   {object}  dto.LoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lotes [post]
func (h *LoteHandler) Crear(c *fiber.Ctx) error {
	var in dto.CrearLoteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := ledger.CrearLoteInput{
		NumeroLote:       in.NumeroLote,
		VariedadID:       in.VariedadID,
		UnidadID:         in.UnidadID,
		OrdenEntradaID:   in.OrdenEntradaID,
		CantidadOriginal: in.CantidadOriginal,
		KgOriginales:     in.KgOriginales,
		UserID:           GetUserID(c),
	}
	if in.FechaIngreso != nil {
		input.FechaIngreso = *in.FechaIngreso
	}
	lote, err := h.ledgerUC.CrearLote(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLote(lote))
}

// GetByID devuelve un lote con su resumen de saldo.
func (h *LoteHandler) GetByID(c *fiber.Ctx) error {
	resultado, err := h.queryUC.ObtenerLote(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LoteConSaldoResponse{
		LoteResponse: dto.FromLote(resultado.Lote),
		Resumen:      dto.FromResumen(resultado.Resumen),
	})
}

// Listar lista lotes por variedad/unidad/estado/rango de fechas.
func (h *LoteHandler) Listar(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	filtro := repository.FiltroLotes{
		VariedadID: c.Query("variedad_id"),
		UnidadID:   c.Query("unidad_id"),
		Estado:     c.Query("estado"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if desde := c.Query("desde"); desde != "" {
		t, err := time.Parse(time.RFC3339, desde)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "desde: fecha inválida (RFC3339)"})
		}
		filtro.Desde = &t
	}
	if hasta := c.Query("hasta"); hasta != "" {
		t, err := time.Parse(time.RFC3339, hasta)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "hasta: fecha inválida (RFC3339)"})
		}
		filtro.Hasta = &t
	}
	lotes, err := h.queryUC.ListarLotes(c.Context(), filtro)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LoteConSaldoResponse, 0, len(lotes))
	for _, l := range lotes {
		out = append(out, dto.LoteConSaldoResponse{
			LoteResponse: dto.FromLote(l.Lote),
			Resumen:      dto.FromResumen(l.Resumen),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "lotes": out})
}

// Eliminar borra un lote sin movimientos (contrato de borrado del motor).
func (h *LoteHandler) Eliminar(c *fiber.Ctx) error {
	if err := h.lifecycleUC.EliminarLote(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CambiarEstado godoc
// @Summary      Transición manual de estado (reservado | descartado)
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CambiarEstadoRequest  true  "estado destino"
// @Success      200   {object}  map[string]string
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/lotes/{id}/estado [patch]
func (h *LoteHandler) CambiarEstado(c *fiber.Ctx) error {
	var in dto.CambiarEstadoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	estado, err := h.lifecycleUC.CambiarEstado(c.Context(), c.Params("id"), in.Estado)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"estado": estado})
}

// LiberarReserva limpia la reserva advisoria y devuelve el estado derivado.
func (h *LoteHandler) LiberarReserva(c *fiber.Ctx) error {
	estado, err := h.lifecycleUC.LiberarReserva(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"estado": estado})
}

// RegistrarEntrada registra una entrada manual contra el lote.
func (h *LoteHandler) RegistrarEntrada(c *fiber.Ctx) error {
	var in dto.RegistrarMovimientoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.ledgerUC.RegistrarEntrada(c.Context(), c.Params("id"), in.CantidadKg, in.OrdenID, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "entrada registrada"})
}

// RegistrarSalida registra una salida manual contra el lote.
func (h *LoteHandler) RegistrarSalida(c *fiber.Ctx) error {
	var in dto.RegistrarMovimientoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.ledgerUC.RegistrarSalida(c.Context(), c.Params("id"), in.CantidadKg, in.OrdenID, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "salida registrada"})
}

// Movimientos lista el historial del lote (orden estable, rango opcional).
func (h *LoteHandler) Movimientos(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	var desde, hasta *time.Time
	if s := c.Query("desde"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "desde: fecha inválida (RFC3339)"})
		}
		desde = &t
	}
	if s := c.Query("hasta"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "hasta: fecha inválida (RFC3339)"})
		}
		hasta = &t
	}
	movimientos, err := h.ledgerUC.MovimientosDe(c.Context(), c.Params("id"), desde, hasta, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovimientoResponse, 0, len(movimientos))
	for _, m := range movimientos {
		out = append(out, dto.FromMovimiento(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movimientos": out})
}

// Saldo devuelve el resumen de saldo recalculado desde los movimientos.
func (h *LoteHandler) Saldo(c *fiber.Ctx) error {
	resumen, err := h.ledgerUC.SaldoDe(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromResumen(resumen))
}
