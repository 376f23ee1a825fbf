package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/charge-ledger/internal/application/dto"
	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// InventoryHandler maneja las operaciones de stock, la vista de stock y el historial (protegido).
type InventoryHandler struct {
	transfers *inventory.TransferUseCase
	overview  *inventory.OverviewUseCase
	history   *inventory.HistoryUseCase
	log       zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(transfers *inventory.TransferUseCase, overview *inventory.OverviewUseCase, history *inventory.HistoryUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{transfers: transfers, overview: overview, history: history, log: log}
}

// Receipt godoc
// @Summary      Entrada manual de mercancía
// @Description  Registra una entrada en un charge existente o en uno nuevo (new_charge).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "article_id, quantity (kg), storage_area, charge_id o new_charge"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input, err := inventory.ReceiptFromRequest(actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	movements, err := h.transfers.AddManualReceipt(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(movements))
}

// Waste godoc
// @Summary      Baja por merma
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.WasteRequest  true  "charge_id, quantity (kg), storage_area, reason_code"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/waste [post]
func (h *InventoryHandler) Waste(c *fiber.Ctx) error {
	var in dto.WasteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input, err := inventory.WasteFromRequest(actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.transfers.BookWaste(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse([]*entity.Movement{m}))
}

// Rebook godoc
// @Summary      Umbuchen: mover cantidad a otro charge o zona
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RebookRequest  true  "source_charge_id, quantity, destination"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/rebookings [post]
func (h *InventoryHandler) Rebook(c *fiber.Ctx) error {
	var in dto.RebookRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input, err := inventory.RebookFromRequest(actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	movements, err := h.transfers.RebookCharge(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(movements))
}

// Merge godoc
// @Summary      Zusammenführen: fusionar un charge en otro del mismo artículo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MergeRequest  true  "source_charge_id, target_charge_id, target_storage_area, quantity opcional"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/merges [post]
func (h *InventoryHandler) Merge(c *fiber.Ctx) error {
	var in dto.MergeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input, err := inventory.MergeFromRequest(actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	movements, err := h.transfers.MergeCharges(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(movements))
}

// Overview godoc
// @Summary      Vista de stock por (charge, zona)
// @Description  Disponible, reservado, en tránsito y libre por posición. as_of_date reconstruye el estado al final de ese día.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        article_id      query  string  false  "Filtrar por artículo"
// @Param        charge_id       query  string  false  "Filtrar por charge"
// @Param        storage_area    query  string  false  "TK o NON_TK"
// @Param        only_critical   query  bool    false  "Solo posiciones críticas"
// @Param        threshold_days  query  int     false  "Umbral de días hasta MHD"
// @Param        as_of_date      query  string  false  "YYYY-MM-DD"
// @Param        page            query  int     false  "Página (desde 1)"  default(1)
// @Param        limit           query  int     false  "Filas por página"  default(20)
// @Success      200  {object}  dto.OverviewResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/overview [get]
func (h *InventoryHandler) Overview(c *fiber.Ctx) error {
	var q dto.OverviewQuery
	var page dto.PageRequest
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	filter, err := inventory.OverviewFilterFromQuery(q, h.overview.Location())
	if err != nil {
		return writeError(c, h.log, err)
	}
	positions, total, err := h.overview.GetOverview(c.UserContext(), filter, page.Limit, page.Offset())
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.StockPositionResponse, 0, len(positions))
	for _, p := range positions {
		items = append(items, inventory.ToPositionResponse(p))
	}
	return c.JSON(dto.OverviewResponse{
		Items: items,
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// Position godoc
// @Summary      Posición en vivo de un (charge, zona)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        charge_id  path  string  true  "ID del charge"
// @Param        area       path  string  true  "TK o NON_TK"
// @Success      200  {object}  dto.StockPositionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/positions/{charge_id}/{area} [get]
func (h *InventoryHandler) Position(c *fiber.Ctx) error {
	area, ok := entity.ParseStorageArea(c.Params("area"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "area debe ser TK o NON_TK"})
	}
	p, err := h.overview.GetPosition(c.UserContext(), c.Params("charge_id"), area)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToPositionResponse(*p))
}

// Movements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from          query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        to            query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        article_id    query  string  false  "Filtrar por artículo"
// @Param        charge_id     query  string  false  "Filtrar por charge"
// @Param        storage_area  query  string  false  "TK o NON_TK"
// @Param        kind          query  string  false  "RECEIPT, REBOOKING, WASTE o MERGE"
// @Param        search        query  string  false  "Texto en nota, motivo, artículo o charge"
// @Param        page          query  int     false  "Página (desde 1)"  default(1)
// @Param        limit         query  int     false  "Filas por página"  default(20)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	filter, err := h.historyFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	list, total, err := h.history.QueryMovements(c.UserContext(), filter, page.Limit, page.Offset())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: inventory.ToMovementResponses(list),
		Page:  dto.PageResponse{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// Movement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) Movement(c *fiber.Ctx) error {
	m, err := h.history.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToMovementResponse(m))
}

// ExportCSV godoc
// @Summary      Exportar historial a CSV
// @Description  Mismos filtros que el historial, sin paginar.
// @Tags         inventory
// @Security     Bearer
// @Produce      text/csv
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export.csv [get]
func (h *InventoryHandler) ExportCSV(c *fiber.Ctx) error {
	filter, err := h.historyFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var buf bytes.Buffer
	if err := h.history.ExportMovementsCsv(c.UserContext(), filter, &buf); err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="movements.csv"`)
	return c.Send(buf.Bytes())
}

// ExportPDF godoc
// @Summary      Exportar historial a PDF
// @Description  Mismos filtros que el historial; como máximo 5000 filas.
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export.pdf [get]
func (h *InventoryHandler) ExportPDF(c *fiber.Ctx) error {
	filter, err := h.historyFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.history.ExportMovementsPdf(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="movements.pdf"`)
	return c.Send(doc)
}

func (h *InventoryHandler) historyFilter(c *fiber.Ctx) (inventory.HistoryFilter, error) {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return inventory.HistoryFilter{}, domain.Invalid("query", "parámetros de consulta inválidos")
	}
	return inventory.HistoryFilterFromQuery(q)
}

func operationResponse(movements []*entity.Movement) dto.OperationResponse {
	out := dto.OperationResponse{Movements: inventory.ToMovementResponses(movements)}
	if len(movements) > 0 {
		out.OperationID = movements[0].OperationID
	}
	return out
}
