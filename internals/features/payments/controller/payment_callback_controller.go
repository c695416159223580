package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/features/payments/gateway"
	paymentService "majibill_backend/internals/features/payments/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/helpers/apperr"
)

type PaymentCallbackController struct {
	Rec *paymentService.Reconciler
}

func NewPaymentCallbackController(rec *paymentService.Reconciler) *PaymentCallbackController {
	return &PaymentCallbackController{Rec: rec}
}

// GET /api/v1/payments/:provider/return?reference=
// Paystack appends reference/trxref, Midtrans appends order_id.
func (h *PaymentCallbackController) Return(c *fiber.Ctx) error {
	ref := firstNonEmpty(c.Query("reference"), c.Query("trxref"), c.Query("order_id"))
	res, err := h.Rec.HandleReturn(c.UserContext(), c.Params("provider"), ref)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "payment "+string(res.Outcome), res)
}

// POST /api/v1/payments/:provider/webhook
// Anything other than a bad signature or unknown provider is acknowledged
// with 200 so the gateway stops retrying; failures stay in the event log.
func (h *PaymentCallbackController) Webhook(c *fiber.Ctx) error {
	headers := map[string]string{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers[string(k)] = string(v)
	})
	body := append([]byte(nil), c.Body()...)

	res, err := h.Rec.HandleWebhook(c.UserContext(), c.Params("provider"), body, headers)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) || errors.Is(err, gateway.ErrBadPayload) ||
			errors.Is(err, gateway.ErrUnknownProvider) {
			return helper.FromServiceError(c, err)
		}
		log.Printf("[GATEWAY] webhook processed with error (%s): %v", apperr.KindOf(err), err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "processed with warning",
		})
	}
	return helper.JsonOK(c, "webhook "+string(res.Outcome), res)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
