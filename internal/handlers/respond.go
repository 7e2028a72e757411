package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/services"
)

func respond(c *fiber.Ctx, status int, body fiber.Map) error {
	body["success"] = status < fiber.StatusBadRequest
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return respond(c, status, fiber.Map{"message": message})
}

// handleError maps service errors onto the response envelope. subject names
// the resource in not-found messages.
func handleError(c *fiber.Ctx, err error, subject string) error {
	var rejected *services.PaymentRejectedError
	var verr *services.ValidationError

	switch {
	case errors.As(err, &rejected):
		body := fiber.Map{
			"message":               "Payment processing failed",
			"transaction_reference": rejected.Reference,
		}
		if errors.As(err, &verr) {
			body["errors"] = verr.Fields
		}
		return respond(c, fiber.StatusUnprocessableEntity, body)
	case errors.As(err, &verr):
		return respond(c, fiber.StatusUnprocessableEntity, fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrInvalidToken):
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "You are not allowed to perform this action.")
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, subject+" not found.")
	case errors.Is(err, services.ErrAmountMismatch):
		return fail(c, fiber.StatusBadRequest, "Amount mismatch")
	}

	log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}
