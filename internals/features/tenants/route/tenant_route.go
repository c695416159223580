package route

import (
	"github.com/gofiber/fiber/v2"

	tenantController "majibill_backend/internals/features/tenants/controller"
	tenantService "majibill_backend/internals/features/tenants/service"
)

func TenantRoutes(r fiber.Router, o *tenantService.Occupancy) {
	ctrl := tenantController.NewTenantController(o)

	g := r.Group("/tenants")
	g.Get("/", ctrl.List)
	g.Post("/", ctrl.Add)
	g.Post("/import", ctrl.Import)
	g.Get("/:id", ctrl.Get)
	g.Patch("/:id", ctrl.Edit)
	g.Post("/:id/transfer", ctrl.Transfer)
	g.Delete("/:id", ctrl.Delete)
}
