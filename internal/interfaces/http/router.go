package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ChargeUC   *inventory.ChargeUseCase
	TransferUC *inventory.TransferUseCase
	OverviewUC *inventory.OverviewUseCase
	HistoryUC  *inventory.HistoryUseCase
	JWTSecret  string
	Log        zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todas las rutas requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	viewer := RequireRole(jwt.RoleViewer)
	warehouse := RequireRole(jwt.RoleWarehouse)
	admin := RequireRole(jwt.RoleAdmin)

	// Charges
	charges := api.Group("/charges")
	chargeHandler := NewChargeHandler(deps.ChargeUC, deps.Log)
	charges.Post("/", warehouse, chargeHandler.Create)
	charges.Get("/", viewer, chargeHandler.List)
	charges.Get("/:id", viewer, chargeHandler.GetByID)
	charges.Get("/:id/reservations", viewer, chargeHandler.Reservations)
	charges.Patch("/:id", admin, chargeHandler.Update)
	charges.Delete("/:id", admin, chargeHandler.Delete)

	// Motor de transferencias, vista de stock e historial
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.TransferUC, deps.OverviewUC, deps.HistoryUC, deps.Log)
	inv.Post("/receipts", warehouse, inventoryHandler.Receipt)
	inv.Post("/waste", warehouse, inventoryHandler.Waste)
	inv.Post("/rebookings", warehouse, inventoryHandler.Rebook)
	inv.Post("/merges", warehouse, inventoryHandler.Merge)
	inv.Get("/overview", viewer, inventoryHandler.Overview)
	inv.Get("/positions/:charge_id/:area", viewer, inventoryHandler.Position)
	inv.Get("/movements/export.csv", viewer, inventoryHandler.ExportCSV)
	inv.Get("/movements/export.pdf", viewer, inventoryHandler.ExportPDF)
	inv.Get("/movements/:id", viewer, inventoryHandler.Movement)
	inv.Get("/movements", viewer, inventoryHandler.Movements)
}
