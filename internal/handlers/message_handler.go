package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/middleware"
	"Marketplace/internal/services"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req services.SendMessageInput
	if _, err := bind(c, &req); err != nil {
		return bindError(c, err)
	}

	msg, err := h.messages.Send(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return handleError(c, err, "User")
	}
	return respond(c, fiber.StatusCreated, fiber.Map{"data": msg})
}

// Dashboard returns one summary per counterpart, most recent first
func (h *MessageHandler) Dashboard(c *fiber.Ctx) error {
	rows, err := h.messages.Dashboard(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return handleError(c, err, "Conversation")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"data": rows})
}

// Conversation returns the full history with :userId and marks their messages read
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	otherID, err := c.ParamsInt("userId")
	if err != nil || otherID <= 0 {
		return fail(c, fiber.StatusNotFound, "User not found.")
	}

	conv, err := h.messages.Conversation(c.UserContext(), middleware.UserID(c), uint(otherID))
	if err != nil {
		return handleError(c, err, "User")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"data": conv})
}
