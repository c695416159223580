package controller

import (
	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/features/admins/dto"
	adminService "majibill_backend/internals/features/admins/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/middlewares/auth"
)

type AdminController struct {
	Svc *adminService.Service
}

func NewAdminController(svc *adminService.Service) *AdminController {
	return &AdminController{Svc: svc}
}

/* ===================== PUBLIC ===================== */

// POST /api/v1/auth/signup
func (h *AdminController) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.Svc.Signup(c.UserContext(), adminService.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "account created", out)
}

// POST /api/v1/auth/login
func (h *AdminController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.Svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "login successful", out)
}

/* ===================== AUTHENTICATED ===================== */

// GET /api/v1/admin/profile
func (h *AdminController) Profile(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	out, err := h.Svc.Profile(c.UserContext(), adminID)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "profile", out)
}

// PATCH /api/v1/admin/profile
func (h *AdminController) UpdateProfile(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.Svc.UpdateProfile(c.UserContext(), adminID, req.Name, req.Phone)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "profile updated", out)
}

// POST /api/v1/admin/password
func (h *AdminController) ChangePassword(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.Svc.ChangePassword(c.UserContext(), adminID, req.CurrentPassword, req.NewPassword); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "password changed", nil)
}

// PUT /api/v1/admin/payout
func (h *AdminController) SetPayout(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.PayoutRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.Svc.SetPayout(c.UserContext(), adminID, adminService.PayoutInput{
		Method:  req.Method,
		Till:    req.Till,
		Paybill: req.Paybill,
		Account: req.Account,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "payout updated", out)
}

// PUT /api/v1/admin/tariff
func (h *AdminController) SetTariff(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.TariffRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if req.WaterRate == nil && req.DefaultRent == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "water_rate or default_rent is required")
	}
	out, err := h.Svc.SetTariff(c.UserContext(), adminID, req.WaterRate, req.DefaultRent)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "tariff updated", out)
}
