package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
)

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, _ time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = true
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[jti], d.err
}

func newTestApp(tokens *services.TokenService, denylist services.Denylist) *fiber.App {
	app := fiber.New()
	app.Get("/me", Protected(tokens, denylist), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "role": Role(c), "jti": Claims(c).ID})
	})
	app.Get("/moderate", Protected(tokens, denylist), RequireCapability(models.CapModerate), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, authorization string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestProtected(t *testing.T) {
	tokens := services.NewTokenService("middleware-secret", time.Hour)
	denylist := &memoryDenylist{revoked: map[string]bool{}}
	app := newTestApp(tokens, denylist)

	token, claims, err := tokens.Issue(models.User{ID: 7, Email: "a@example.com", Role: models.RoleBuyer})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Token "+token))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Bearer not-a-jwt"))
	assert.Equal(t, http.StatusOK, get(t, app, "/me", "Bearer "+token))

	other := services.NewTokenService("another-secret", time.Hour)
	forged, _, err := other.Issue(models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Bearer "+forged))

	require.NoError(t, denylist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Bearer "+token))
}

func TestProtectedDenylistFailure(t *testing.T) {
	tokens := services.NewTokenService("middleware-secret", time.Hour)
	denylist := &memoryDenylist{revoked: map[string]bool{}, err: errors.New("redis down")}
	app := newTestApp(tokens, denylist)

	token, _, err := tokens.Issue(models.User{ID: 1, Role: models.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, get(t, app, "/me", "Bearer "+token))
}

func TestRequireCapability(t *testing.T) {
	tokens := services.NewTokenService("middleware-secret", time.Hour)
	app := newTestApp(tokens, &memoryDenylist{revoked: map[string]bool{}})

	cases := map[models.Role]int{
		models.RoleAdmin:  http.StatusNoContent,
		models.RoleSeller: http.StatusForbidden,
		models.RoleBuyer:  http.StatusForbidden,
	}
	for role, want := range cases {
		token, _, err := tokens.Issue(models.User{ID: 3, Role: role})
		require.NoError(t, err)
		assert.Equal(t, want, get(t, app, "/moderate", "Bearer "+token), role)
	}
}
