package route

import (
	"github.com/gofiber/fiber/v2"

	adminController "majibill_backend/internals/features/admins/controller"
	adminService "majibill_backend/internals/features/admins/service"
	rateLimiter "majibill_backend/internals/middlewares"
)

// AdminPublicRoutes mounts signup and login.
func AdminPublicRoutes(r fiber.Router, svc *adminService.Service) {
	ctrl := adminController.NewAdminController(svc)

	g := r.Group("/auth")
	g.Post("/signup", rateLimiter.SignupRateLimiter(), ctrl.Signup)
	g.Post("/login", rateLimiter.LoginRateLimiter(), ctrl.Login)
}

func AdminRoutes(r fiber.Router, svc *adminService.Service) {
	ctrl := adminController.NewAdminController(svc)

	g := r.Group("/admin")
	g.Get("/profile", ctrl.Profile)
	g.Patch("/profile", ctrl.UpdateProfile)
	g.Post("/password", ctrl.ChangePassword)
	g.Put("/payout", ctrl.SetPayout)
	g.Put("/tariff", ctrl.SetTariff)
}
