package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
)

func setupProfileRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	profileHandler := handlers.NewProfileHandler(deps.Users, deps.AppURL)

	profile := api.Group("/profile", protected)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
}
