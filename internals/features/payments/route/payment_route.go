package route

import (
	"github.com/gofiber/fiber/v2"

	paymentController "majibill_backend/internals/features/payments/controller"
	paymentService "majibill_backend/internals/features/payments/service"
	rateLimiter "majibill_backend/internals/middlewares"
)

// PaymentPublicRoutes mounts the unauthenticated gateway callbacks.
func PaymentPublicRoutes(r fiber.Router, rec *paymentService.Reconciler) {
	ctrl := paymentController.NewPaymentCallbackController(rec)

	g := r.Group("/payments/:provider", rateLimiter.WebhookRateLimiter())
	g.Get("/return", ctrl.Return)
	g.Post("/webhook", ctrl.Webhook)
}
