package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
	"Marketplace/internal/middleware"
	"Marketplace/internal/models"
)

func setupMessageRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	messageHandler := handlers.NewMessageHandler(deps.Messages)

	messages := api.Group("/messages", protected, middleware.RequireCapability(models.CapMessage))
	messages.Post("/send", messageHandler.Send)
	messages.Get("/dashboard", messageHandler.Dashboard)
	messages.Get("/conversation/:userId", messageHandler.Conversation)
}
