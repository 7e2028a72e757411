package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
	"Marketplace/internal/middleware"
	"Marketplace/internal/models"
)

func setupPaymentRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	paymentHandler := handlers.NewPaymentHandler(deps.Payments, deps.Users)

	payments := api.Group("/payments", protected, middleware.RequireCapability(models.CapPay))
	payments.Post("/", paymentHandler.CreatePayment)
	payments.Get("/", paymentHandler.ListPayments)
	payments.Get("/verify/:reference", paymentHandler.VerifyPayment)
}
