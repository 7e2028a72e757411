package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
)

const (
	localUserID = "user_id"
	localRole   = "role"
	localClaims = "claims"
)

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// Protected requires a valid, unrevoked bearer token and stores its claims in locals.
func Protected(tokens *services.TokenService, denylist services.Denylist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Missing authorization header")
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return unauthorized(c, "Invalid authorization header")
		}

		claims, err := tokens.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		revoked, err := denylist.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			log.Printf("❌ Token revocation check failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Internal server error",
			})
		}
		if revoked {
			return unauthorized(c, "Token has been revoked")
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, claims.Role)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// RequireCapability rejects callers whose role does not grant capability.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Role(c).Can(capability) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "You are not allowed to perform this action.",
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(localRole).(models.Role)
	return role
}

func Claims(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(localClaims).(*services.Claims)
	return claims
}
