package services_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := services.NewTokenService("secret", time.Hour)

	token, issued, err := svc.Issue(models.User{ID: 7, Email: "a@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, _, err := services.NewTokenService("secret", time.Hour).Issue(models.User{ID: 1})
	require.NoError(t, err)

	_, err = services.NewTokenService("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	expired, _, err := services.NewTokenService("secret", -time.Minute).Issue(models.User{ID: 1})
	require.NoError(t, err)
	_, err = services.NewTokenService("secret", time.Hour).Parse(expired)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": 1, "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = services.NewTokenService("secret", time.Hour).Parse(unsigned)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
