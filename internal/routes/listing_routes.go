package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
	"Marketplace/internal/middleware"
	"Marketplace/internal/models"
)

func setupListingRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	listingHandler := handlers.NewListingHandler(deps.Listings)
	canSell := middleware.RequireCapability(models.CapSell)

	listings := api.Group("/listings", protected)

	// static paths before /:id
	listings.Get("/", listingHandler.Index)
	listings.Get("/search", listingHandler.Search)
	listings.Get("/filter-options", listingHandler.FilterOptions)
	listings.Get("/user/:id", listingHandler.UserListings)
	listings.Get("/:id", listingHandler.Show)

	listings.Post("/", canSell, listingHandler.Create)
	listings.Put("/:id", canSell, listingHandler.Update)
	listings.Delete("/:id", canSell, listingHandler.Delete)

	api.Get("/seller/listings", protected, canSell, listingHandler.SellerListings)
}
