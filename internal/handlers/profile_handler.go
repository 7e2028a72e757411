package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/middleware"
	"Marketplace/internal/models"
	"Marketplace/internal/services"
)

type ProfileHandler struct {
	users  *services.UserService
	appURL string
}

func NewProfileHandler(users *services.UserService, appURL string) *ProfileHandler {
	return &ProfileHandler{users: users, appURL: appURL}
}

func (h *ProfileHandler) profile(user models.User) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"age":        user.Age,
		"sex":        user.Sex,
		"phone":      user.Phone,
		"address":    user.Address,
		"city":       user.City,
		"state":      user.State,
		"country":    user.Country,
		"image":      services.ImageURL(h.appURL, user.Image),
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}
}

// GetProfile retrieves the authenticated user's profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return handleError(c, err, "User")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Profile retrieved successfully",
		"data":    h.profile(user),
	})
}

// UpdateProfile accepts JSON or multipart; a multipart "image" replaces the current picture
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileInput
	image, err := bind(c, &req)
	if err != nil {
		return bindError(c, err)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), middleware.UserID(c), req, image)
	if err != nil {
		return handleError(c, err, "User")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated successfully",
		"data":    h.profile(user),
	})
}
