package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}

// UUIDParam parses a path id and writes the 400 itself on failure.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := ParseUUIDParam(c, name)
	if err != nil {
		return uuid.Nil, false, JsonError(c, fiber.StatusBadRequest, name+" is not a valid id")
	}
	return id, true, nil
}

// OptionalUUIDQuery returns nil for an absent or malformed query value.
func OptionalUUIDQuery(c *fiber.Ctx, name string) *uuid.UUID {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
