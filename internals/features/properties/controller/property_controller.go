package controller

import (
	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/features/properties/dto"
	propertyService "majibill_backend/internals/features/properties/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/middlewares/auth"
)

type PropertyController struct {
	Svc *propertyService.Service
}

func NewPropertyController(svc *propertyService.Service) *PropertyController {
	return &PropertyController{Svc: svc}
}

// GET /api/v1/properties
func (h *PropertyController) List(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.ListProperties(c.UserContext(), adminID)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "properties", rows)
}

// POST /api/v1/properties
func (h *PropertyController) Create(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.PropertyRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	p, err := h.Svc.CreateProperty(c.UserContext(), adminID, req.Name)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "property created", p)
}

// PATCH /api/v1/properties/:id
func (h *PropertyController) Rename(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.PropertyRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	p, err := h.Svc.RenameProperty(c.UserContext(), adminID, id, req.Name)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "property renamed", p)
}

// DELETE /api/v1/properties/:id
func (h *PropertyController) Delete(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Svc.DeleteProperty(c.UserContext(), adminID, id); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonDeleted(c, "property deleted", fiber.Map{"property_id": id})
}

/* ===================== HOUSES ===================== */

// GET /api/v1/properties/:id/houses
func (h *PropertyController) ListHouses(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	rows, err := h.Svc.ListHouses(c.UserContext(), adminID, id)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "houses", rows)
}

// POST /api/v1/properties/:id/houses
func (h *PropertyController) CreateHouse(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.CreateHouseRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	house, err := h.Svc.CreateHouse(c.UserContext(), adminID, id, req.Label, req.Rent)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "house created", house)
}

// PATCH /api/v1/houses/:id
func (h *PropertyController) UpdateHouse(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.UpdateHouseRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	house, err := h.Svc.UpdateHouse(c.UserContext(), adminID, id, req.Label, req.Rent)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "house updated", house)
}

// DELETE /api/v1/houses/:id
func (h *PropertyController) DeleteHouse(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Svc.DeleteHouse(c.UserContext(), adminID, id); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonDeleted(c, "house deleted", fiber.Map{"house_id": id})
}
