package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"majibill_backend/internals/configs"
	adminRoute "majibill_backend/internals/features/admins/route"
	adminService "majibill_backend/internals/features/admins/service"
	billingRoute "majibill_backend/internals/features/billing/route"
	billingService "majibill_backend/internals/features/billing/service"
	paymentRoute "majibill_backend/internals/features/payments/route"
	paymentService "majibill_backend/internals/features/payments/service"
	propertyRoute "majibill_backend/internals/features/properties/route"
	propertyService "majibill_backend/internals/features/properties/service"
	subscriptionRoute "majibill_backend/internals/features/subscriptions/route"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	tenantRoute "majibill_backend/internals/features/tenants/route"
	tenantService "majibill_backend/internals/features/tenants/service"
	"majibill_backend/internals/middlewares/auth"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Admins        *adminService.Service
	Properties    *propertyService.Service
	Occupancy     *tenantService.Occupancy
	Ledger        *billingService.Ledger
	Subscriptions *subscriptionService.Service
	Reconciler    *paymentService.Reconciler
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg configs.AppConfig, s Services) {
	BaseRoutes(app, db, configs.GetEnv("RAILWAY_ENVIRONMENT"))

	api := app.Group("/api/v1")

	// ===================== PUBLIC =====================
	log.Println("[INFO] Mounting public routes...")
	adminRoute.AdminPublicRoutes(api, s.Admins)
	paymentRoute.PaymentPublicRoutes(api, s.Reconciler)

	// ===================== ADMIN (JWT) =====================
	log.Println("[INFO] Mounting admin routes...")
	private := api.Group("", auth.AuthMiddleware(cfg.JWTSecret, db))
	adminRoute.AdminRoutes(private, s.Admins)
	propertyRoute.PropertyRoutes(private, s.Properties)
	tenantRoute.TenantRoutes(private, s.Occupancy)
	billingRoute.BillingRoutes(private, s.Ledger)
	subscriptionRoute.SubscriptionRoutes(private, s.Subscriptions)
}
