package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"majibill_backend/internals/features/billing/dto"
	billingModel "majibill_backend/internals/features/billing/model"
	billingService "majibill_backend/internals/features/billing/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/middlewares/auth"
)

type BillingController struct {
	Ledger *billingService.Ledger
}

func NewBillingController(l *billingService.Ledger) *BillingController {
	return &BillingController{Ledger: l}
}

/* =========================================================
   READINGS & RENT
========================================================= */

// POST /api/v1/readings
func (h *BillingController) RecordReading(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.RecordReadingRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	var at time.Time
	if req.RecordedAt != nil {
		at = *req.RecordedAt
	}
	out, err := h.Ledger.RecordReading(c.UserContext(), adminID, req.TenantID, req.CurrentValue, at)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "reading recorded", out)
}

// POST /api/v1/bills/rent-runs
func (h *BillingController) GenerateRent(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	var req dto.GenerateRentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.Ledger.GenerateRentBills(c.UserContext(), adminID, strings.TrimSpace(req.Month))
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "rent bills generated", out)
}

/* =========================================================
   BILLS
========================================================= */

// GET /api/v1/bills?q=&status=&type=&month=&tenant_id=
func (h *BillingController) ListBills(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 200)
	f := dto.BillFilter{
		Search:   c.Query("q"),
		Status:   billingModel.BillStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Type:     billingModel.BillType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
		Month:    strings.TrimSpace(c.Query("month")),
		TenantID: helper.OptionalUUIDQuery(c, "tenant_id"),
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}
	if f.Type != "" && !f.Type.Valid() {
		return helper.JsonError(c, fiber.StatusBadRequest, "type must be water or rent")
	}
	switch f.Status {
	case "", "all", billingService.StatusOpen, billingModel.BillUnpaid, billingModel.BillPartial, billingModel.BillPaid:
	default:
		return helper.JsonError(c, fiber.StatusBadRequest, "status must be one of all, open, unpaid, partial, paid")
	}

	rows, total, err := h.Ledger.ListBills(c.UserContext(), adminID, f)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "bills", rows, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(rows)))
}

// GET /api/v1/bills/summary?type=
func (h *BillingController) Summary(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	kind := billingModel.BillType(strings.ToLower(strings.TrimSpace(c.Query("type"))))
	if kind != "" && !kind.Valid() {
		return helper.JsonError(c, fiber.StatusBadRequest, "type must be water or rent")
	}
	out, err := h.Ledger.Summary(c.UserContext(), adminID, kind)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "summary", out)
}

// POST /api/v1/bills/:id/payments
func (h *BillingController) ApplyPayment(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	billID, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var req dto.ApplyPaymentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		return helper.FromServiceError(c, billingService.ErrInvalidAmount)
	}
	bill, err := h.Ledger.ApplyPayment(c.UserContext(), adminID, billID, billingService.PaymentInput{
		Amount:   req.Amount,
		Method:   req.Method,
		Note:     req.Note,
		Operator: adminID.String(),
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "payment applied", bill)
}

// GET /api/v1/tenants/:id/account
func (h *BillingController) TenantAccount(c *fiber.Ctx) error {
	adminID, err := auth.AdminID(c)
	if err != nil {
		return err
	}
	tenantID, ok, err := helper.UUIDParam(c, "id")
	if !ok {
		return err
	}
	out, err := h.Ledger.TenantAccount(c.UserContext(), adminID, tenantID)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "tenant account", out)
}
