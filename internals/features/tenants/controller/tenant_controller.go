package controller

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"majibill_backend/internals/features/tenants/dto"
	tenantService "majibill_backend/internals/features/tenants/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/middlewares/auth"
)

const maxImportBytes = 2 << 20

type TenantController struct {
	Occupancy *tenantService.Occupancy
}

func NewTenantController(o *tenantService.Occupancy) *TenantController {
	return &TenantController{Occupancy: o}
}

// GET /api/v1/tenants?property_id=&q=&page=&per_page=
func (h *TenantController) List(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Occupancy.ListTenants(c.UserContext(), adminID, dto.TenantFilter{
		PropertyID: helper.OptionalUUIDQuery(c, "property_id"),
		Search:     c.Query("q"),
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "tenants", rows, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(rows)))
}

// GET /api/v1/tenants/:id
func (h *TenantController) Get(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	row, err := h.Occupancy.GetTenant(c.UserContext(), adminID, id)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "tenant", row)
}

// POST /api/v1/tenants
func (h *TenantController) Add(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.AddTenantRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	t, err := h.Occupancy.AddTenant(c.UserContext(), adminID, tenantService.AddTenantInput{
		PropertyID:     req.PropertyID,
		Name:           req.Name,
		Phone:          req.Phone,
		HouseLabel:     req.HouseLabel,
		Rent:           req.Rent,
		InitialReading: req.InitialReading,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "tenant added", t)
}

// PATCH /api/v1/tenants/:id
func (h *TenantController) Edit(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.EditTenantRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	t, err := h.Occupancy.EditTenant(c.UserContext(), adminID, id, tenantService.EditTenantInput{
		Name:       req.Name,
		Phone:      req.Phone,
		HouseLabel: req.HouseLabel,
		Rent:       req.Rent,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "tenant updated", t)
}

// POST /api/v1/tenants/:id/transfer
func (h *TenantController) Transfer(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.TransferRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	t, err := h.Occupancy.TransferTenant(c.UserContext(), adminID, id, req.HouseLabel, req.PropertyID)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "tenant moved", t)
}

// DELETE /api/v1/tenants/:id
func (h *TenantController) Delete(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	id, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	if err := h.Occupancy.DeleteTenant(c.UserContext(), adminID, id); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonDeleted(c, "tenant deleted", fiber.Map{"tenant_id": id})
}

// POST /api/v1/tenants/import (multipart: file, property_id)
func (h *TenantController) Import(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	propertyID, err := uuid.Parse(strings.TrimSpace(c.FormValue("property_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "property_id is not a valid id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "file is required")
	}
	if fh.Size > maxImportBytes {
		return helper.JsonError(c, fiber.StatusRequestEntityTooLarge, "file is larger than 2 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "file could not be read")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImportBytes))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "file could not be read")
	}

	report, err := h.Occupancy.ImportTenants(c.UserContext(), adminID, propertyID, fh.Filename, data)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "import finished", report)
}
