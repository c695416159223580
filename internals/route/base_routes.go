package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	database "majibill_backend/internals/databases"
)

func BaseRoutes(app *fiber.App, db *gorm.DB, environment string) {
	started := time.Now()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("majibill api")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		dbStatus, serverStatus, httpStatus := "connected", "OK", fiber.StatusOK
		if err := database.Ping(ctx, db); err != nil {
			dbStatus, serverStatus, httpStatus = "database connection error", "DOWN", fiber.StatusServiceUnavailable
		}
		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(started).Seconds()),
			"environment":    environment,
		})
	})
}
