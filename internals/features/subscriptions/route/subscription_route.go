package route

import (
	"github.com/gofiber/fiber/v2"

	subscriptionController "majibill_backend/internals/features/subscriptions/controller"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
)

func SubscriptionRoutes(r fiber.Router, svc *subscriptionService.Service) {
	ctrl := subscriptionController.NewSubscriptionController(svc)

	g := r.Group("/subscription")
	g.Get("/", ctrl.View)
	g.Get("/payments", ctrl.ListPayments)
	g.Post("/payments", ctrl.Initiate)
	g.Patch("/auto-renew", ctrl.SetAutoRenew)
}
