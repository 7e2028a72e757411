package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/middleware"
	"Marketplace/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	users    *services.UserService
}

func NewPaymentHandler(payments *services.PaymentService, users *services.UserService) *PaymentHandler {
	return &PaymentHandler{payments: payments, users: users}
}

// CreatePayment records a card or bank payment for a listing
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var req services.PaymentInput
	if _, err := bind(c, &req); err != nil {
		return bindError(c, err)
	}

	payer, err := h.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return handleError(c, err, "User")
	}

	result, err := h.payments.Record(c.UserContext(), payer, req)
	if err != nil {
		return handleError(c, err, "Listing")
	}

	return respond(c, fiber.StatusCreated, fiber.Map{
		"message": result.Message,
		"data":    result.Payment,
	})
}

// VerifyPayment looks a payment up by transaction or bank reference
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	caller, err := h.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return handleError(c, err, "User")
	}

	verification, err := h.payments.Verify(c.UserContext(), caller, c.Params("reference"))
	if err != nil {
		return handleError(c, err, "Payment")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"data": verification})
}

func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	page, err := h.payments.List(c.UserContext(), middleware.UserID(c), pageRequest(c))
	if err != nil {
		return handleError(c, err, "Payment")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"data":       page.Data,
		"pagination": page.Pagination,
	})
}
