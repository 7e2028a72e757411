package routes

import (
	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/handlers"
	"Marketplace/internal/middleware"
	"Marketplace/internal/services"
	"Marketplace/internal/storage"
)

// Deps is everything the route table needs.
type Deps struct {
	Tokens   *services.TokenService
	Denylist services.Denylist
	Users    *services.UserService
	Listings *services.ListingService
	Messages *services.MessageService
	Payments *services.PaymentService
	Store    storage.ImageStore
	AppURL   string

	// AuthLimiter throttles register and login; nil disables throttling.
	AuthLimiter *middleware.RateLimiter
}

func SetupRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api")
	protected := middleware.Protected(deps.Tokens, deps.Denylist)

	authHandler := handlers.NewAuthHandler(deps.Users)
	throttle := deps.AuthLimiter.Limit()
	api.Post("/register", throttle, authHandler.Register)
	api.Post("/login", throttle, authHandler.Login)
	api.Post("/logout", protected, authHandler.Logout)

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Marketplace API v1.0",
			"status":  "running",
		})
	})

	setupProfileRoutes(api, protected, deps)
	setupListingRoutes(api, protected, deps)
	setupMessageRoutes(api, protected, deps)
	setupPaymentRoutes(api, protected, deps)
	setupAdminRoutes(api, protected, deps)
	setupStorageRoutes(app, deps)
}

// setupStorageRoutes serves locally keyed images when the store can read them back.
func setupStorageRoutes(app *fiber.App, deps Deps) {
	reader, ok := deps.Store.(storage.ObjectReader)
	if !ok {
		return
	}
	storageHandler := handlers.NewStorageHandler(reader)
	app.Get("/storage/*", storageHandler.Serve)
}
