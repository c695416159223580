package route

import (
	"github.com/gofiber/fiber/v2"

	propertyController "majibill_backend/internals/features/properties/controller"
	propertyService "majibill_backend/internals/features/properties/service"
)

func PropertyRoutes(r fiber.Router, svc *propertyService.Service) {
	ctrl := propertyController.NewPropertyController(svc)

	p := r.Group("/properties")
	p.Get("/", ctrl.List)
	p.Post("/", ctrl.Create)
	p.Patch("/:id", ctrl.Rename)
	p.Delete("/:id", ctrl.Delete)
	p.Get("/:id/houses", ctrl.ListHouses)
	p.Post("/:id/houses", ctrl.CreateHouse)

	h := r.Group("/houses")
	h.Patch("/:id", ctrl.UpdateHouse)
	h.Delete("/:id", ctrl.DeleteHouse)
}
