package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"Marketplace/internal/routes"
)

type Options struct {
	BodyLimitMB int
	AccessLog   bool
}

// NewApp builds the Fiber application with middleware and every route mounted.
func NewApp(opts Options, deps routes.Deps) *fiber.App {
	bodyLimit := opts.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}

	app := fiber.New(fiber.Config{
		AppName:      "Marketplace API v1.0",
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Marketplace API",
			"status":  "running",
			"version": "1.0",
		})
	})

	routes.SetupRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found.",
		})
	})

	return app
}

// errorHandler keeps unhandled errors inside the JSON envelope without leaking details.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
