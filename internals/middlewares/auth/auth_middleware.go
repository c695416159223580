// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const LocAdminID = "admin_id"

// AuthMiddleware verifies the bearer JWT and stores the admin id in Locals.
// The admin row must still exist.
func AuthMiddleware(secret string, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		adminID, err := ParseToken(secret, tokenString)
		if err != nil {
			log.Println("[AUTH] token rejected:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or expired token")
		}

		if err := ensureAdminExists(db, adminID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Account not found")
			}
			log.Println("[AUTH] admin lookup:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}

		c.Locals(LocAdminID, adminID)
		return c.Next()
	}
}

// AdminID reads the id stored by AuthMiddleware.
func AdminID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals(LocAdminID).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - admin not in context")
}
