package route

import (
	"github.com/gofiber/fiber/v2"

	billingController "majibill_backend/internals/features/billing/controller"
	billingService "majibill_backend/internals/features/billing/service"
)

func BillingRoutes(r fiber.Router, ledger *billingService.Ledger) {
	ctrl := billingController.NewBillingController(ledger)

	r.Post("/readings", ctrl.RecordReading)

	bills := r.Group("/bills")
	bills.Get("/", ctrl.ListBills)
	bills.Get("/summary", ctrl.Summary)
	bills.Post("/rent-runs", ctrl.GenerateRent)
	bills.Post("/:id/payments", ctrl.ApplyPayment)

	r.Get("/tenants/:id/account", ctrl.TenantAccount)
}
