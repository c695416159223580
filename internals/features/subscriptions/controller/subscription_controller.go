package controller

import (
	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/features/subscriptions/dto"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/middlewares/auth"
)

type SubscriptionController struct {
	Svc *subscriptionService.Service
}

func NewSubscriptionController(svc *subscriptionService.Service) *SubscriptionController {
	return &SubscriptionController{Svc: svc}
}

// GET /api/v1/subscription
func (h *SubscriptionController) View(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	out, err := h.Svc.View(c.UserContext(), adminID)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "subscription", out)
}

// POST /api/v1/subscription/payments
func (h *SubscriptionController) Initiate(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.InitiatePaymentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	p, err := h.Svc.InitiatePayment(c.UserContext(), adminID, req.Tier, req.Cadence)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	out := dto.InitiatePaymentResponse{
		Reference: p.SubscriptionPaymentReference,
		Amount:    p.SubscriptionPaymentAmount,
		Provider:  p.SubscriptionPaymentProvider,
	}
	if p.SubscriptionPaymentAuthorizationURL != nil {
		out.AuthorizationURL = *p.SubscriptionPaymentAuthorizationURL
	}
	return helper.JsonCreated(c, "payment initiated", out)
}

// GET /api/v1/subscription/payments
func (h *SubscriptionController) ListPayments(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.ListPayments(c.UserContext(), adminID, pg.Limit, pg.Offset)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "subscription payments", rows,
		helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(rows)))
}

// PATCH /api/v1/subscription/auto-renew
func (h *SubscriptionController) SetAutoRenew(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.AutoRenewRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.Svc.SetAutoRenew(c.UserContext(), adminID, *req.AutoRenew); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "auto-renew updated", fiber.Map{"auto_renew": *req.AutoRenew})
}
