package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
	"Marketplace/internal/middleware"
	"Marketplace/internal/models"
)

func setupAdminRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	adminHandler := handlers.NewAdminHandler(deps.Listings)

	// Protected admin routes
	admin := api.Group("/admin", protected, middleware.RequireCapability(models.CapModerate))

	// Listing moderation
	admin.Get("/listings", adminHandler.GetAllListings)
	admin.Get("/listings/stats", adminHandler.GetListingStats)
	admin.Patch("/listings/:id/status", adminHandler.UpdateListingStatus)
}
