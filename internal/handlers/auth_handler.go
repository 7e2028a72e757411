package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/middleware"
	"Marketplace/internal/services"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register creates a buyer, seller or (with the setup key) admin account
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if _, err := bind(c, &req); err != nil {
		return bindError(c, err)
	}

	user, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return handleError(c, err, "User")
	}

	return respond(c, fiber.StatusCreated, fiber.Map{
		"message": "User registered successfully",
		"data":    fiber.Map{"user": user},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if _, err := bind(c, &req); err != nil {
		return bindError(c, err)
	}

	user, token, err := h.users.Login(c.UserContext(), req)
	if err != nil {
		return handleError(c, err, "User")
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

// Logout revokes the token used for this request
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.users.Logout(c.UserContext(), middleware.Claims(c)); err != nil {
		return handleError(c, err, "Token")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Successfully logged out"})
}
