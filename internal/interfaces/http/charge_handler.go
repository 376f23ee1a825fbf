package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/charge-ledger/internal/application/dto"
	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// ChargeHandler maneja las peticiones HTTP del registro de charges (protegido).
type ChargeHandler struct {
	uc  *inventory.ChargeUseCase
	log zerolog.Logger
}

// NewChargeHandler construye el handler.
func NewChargeHandler(uc *inventory.ChargeUseCase, log zerolog.Logger) *ChargeHandler {
	return &ChargeHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear charge
// @Tags         charges
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateChargeRequest  true  "article_id, best_by_date (YYYY-MM-DD), is_frozen_area"
// @Success      201   {object}  dto.ChargeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/charges [post]
func (h *ChargeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateChargeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input, err := inventory.CreateChargeFromRequest(in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.CreateCharge(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToChargeResponse(out))
}

// List godoc
// @Summary      Listar charges
// @Tags         charges
// @Security     Bearer
// @Produce      json
// @Param        article_id       query  string  false  "Filtrar por artículo"
// @Param        include_deleted  query  bool    false  "Incluir charges borrados"
// @Param        page             query  int     false  "Página (desde 1)"  default(1)
// @Param        limit            query  int     false  "Filas por página"  default(20)
// @Success      200  {object}  dto.ChargeListResponse
// @Router       /api/charges [get]
func (h *ChargeHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	filter := entity.ChargeFilter{
		ArticleID:      c.Query("article_id"),
		IncludeDeleted: c.QueryBool("include_deleted", false),
	}
	list, total, err := h.uc.ListCharges(c.UserContext(), filter, page.Limit, page.Offset())
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.ChargeResponse, 0, len(list))
	for _, ch := range list {
		items = append(items, *inventory.ToChargeResponse(ch))
	}
	return c.JSON(dto.ChargeListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// GetByID godoc
// @Summary      Obtener charge por ID
// @Tags         charges
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del charge"
// @Success      200  {object}  dto.ChargeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [get]
func (h *ChargeHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetCharge(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToChargeResponse(out))
}

// Update godoc
// @Summary      Editar charge
// @Description  Cambia MHD, zona declarada, fecha de sacrificio o proveedor. El artículo no se puede cambiar.
// @Tags         charges
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del charge"
// @Param        body  body  dto.UpdateChargeRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ChargeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [patch]
func (h *ChargeHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateChargeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	patch, err := inventory.ChargePatchFromRequest(in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.UpdateCharge(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToChargeResponse(out))
}

// Delete godoc
// @Summary      Borrar charge
// @Description  Solo si no queda stock en ninguna zona y no hay reservas abiertas o en tránsito.
// @Tags         charges
// @Security     Bearer
// @Param        id   path  string  true  "ID del charge"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [delete]
func (h *ChargeHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteCharge(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reservations godoc
// @Summary      Reservas de un charge
// @Tags         charges
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del charge"
// @Success      200  {array}   dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/charges/{id}/reservations [get]
func (h *ChargeHandler) Reservations(c *fiber.Ctx) error {
	list, err := h.uc.ListReservations(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, inventory.ToReservationResponse(r))
	}
	return c.JSON(out)
}
