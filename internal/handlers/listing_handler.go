package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/middleware"
	"Marketplace/internal/services"
)

type ListingHandler struct {
	listings *services.ListingService
}

func NewListingHandler(listings *services.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

func pageBody(page services.ListingPage) fiber.Map {
	return fiber.Map{
		"data":       page.Data,
		"pagination": page.Pagination,
	}
}

func listingID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// Index lists every listing newest first, optionally by ?status=
func (h *ListingHandler) Index(c *fiber.Ctx) error {
	page, err := h.listings.Index(c.UserContext(), c.Query("status"), pageRequest(c))
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, pageBody(page))
}

// Search filters by name, location, categories, condition and status; all optional
func (h *ListingHandler) Search(c *fiber.Ctx) error {
	filter := services.ListingFilter{
		Name:       c.Query("name"),
		Location:   c.Query("location"),
		Categories: c.Query("categories"),
		Condition:  c.Query("condition"),
		Status:     c.Query("status"),
	}

	page, err := h.listings.Search(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return handleError(c, err, "Listing")
	}

	body := pageBody(page)
	body["filters"] = filter
	return respond(c, fiber.StatusOK, body)
}

func (h *ListingHandler) FilterOptions(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, fiber.Map{"data": h.listings.FilterOptions()})
}

func (h *ListingHandler) UserListings(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "User not found.")
	}
	page, err := h.listings.ByUser(c.UserContext(), id, pageRequest(c))
	if err != nil {
		return handleError(c, err, "User")
	}
	return respond(c, fiber.StatusOK, pageBody(page))
}

// SellerListings returns the caller's own listings
func (h *ListingHandler) SellerListings(c *fiber.Ctx) error {
	page, err := h.listings.ByUser(c.UserContext(), middleware.UserID(c), pageRequest(c))
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, pageBody(page))
}

func (h *ListingHandler) Show(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Listing not found.")
	}
	listing, err := h.listings.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"data": listing})
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var req services.ListingInput
	image, err := bind(c, &req)
	if err != nil {
		return bindError(c, err)
	}

	listing, err := h.listings.Create(c.UserContext(), middleware.UserID(c), req, image)
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusCreated, fiber.Map{
		"message": "Listing created successfully.",
		"data":    listing,
	})
}

func (h *ListingHandler) Update(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Listing not found.")
	}

	var req services.ListingUpdate
	image, err := bind(c, &req)
	if err != nil {
		return bindError(c, err)
	}

	listing, err := h.listings.Update(c.UserContext(), middleware.UserID(c), id, req, image)
	if err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Listing updated successfully.",
		"data":    listing,
	})
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Listing not found.")
	}
	if err := h.listings.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return handleError(c, err, "Listing")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Listing deleted successfully."})
}
