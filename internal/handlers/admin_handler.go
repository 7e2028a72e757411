package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/services"
)

type AdminHandler struct {
	listings *services.ListingService
}

func NewAdminHandler(listings *services.ListingService) *AdminHandler {
	return &AdminHandler{listings: listings}
}

// GetAllListings lists listings of every status, optionally by ?status=
func (h *AdminHandler) GetAllListings(c *fiber.Ctx) error {
	page, err := h.listings.AdminIndex(c.UserContext(), c.Query("status"), pageRequest(c))
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, pageBody(page))
}

func (h *AdminHandler) GetListingStats(c *fiber.Ctx) error {
	stats, err := h.listings.Stats(c.UserContext())
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"data": stats})
}

// UpdateListingStatus moves a listing to pending, approved or rejected
func (h *AdminHandler) UpdateListingStatus(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Listing not found.")
	}

	var req services.ModerationInput
	if _, err := bind(c, &req); err != nil {
		return bindError(c, err)
	}

	listing, err := h.listings.SetStatus(c.UserContext(), id, req)
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Listing status updated successfully.",
		"data":    listing,
	})
}
