package helper

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/helpers/apperr"
)

// FromServiceError renders a service error in the standard envelope.
// Integrity and unclassified failures are logged and shown generically.
func FromServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.KindIntegrity || ae.Kind == apperr.KindUnknown {
		log.Printf("[ERROR] reqid=%v %s %s: %v", c.Locals("reqid"), c.Method(), c.Path(), err)
		return JsonError(c, fiber.StatusInternalServerError, "something went wrong, please try again")
	}

	status := apperr.HTTPStatus(ae.Kind)
	if ae.Kind == apperr.KindTransient {
		log.Printf("[WARN] reqid=%v upstream: %v", c.Locals("reqid"), err)
	}
	return JsonCodedError(c, status, ae.Code, err.Error(), ae.Redirect)
}
