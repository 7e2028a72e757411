package database_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Marketplace/internal/database"
	"Marketplace/internal/models"
	"Marketplace/internal/testutil"
)

func TestSeedCreatesSellersBuyersAndListings(t *testing.T) {
	db := testutil.NewDB(t)

	result, err := database.Seed(db, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, database.SeedResult{Sellers: 5, Buyers: 5, Listings: 25}, result)

	var sellers, buyers int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleSeller).Count(&sellers).Error)
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleBuyer).Count(&buyers).Error)
	assert.EqualValues(t, 5, sellers)
	assert.EqualValues(t, 5, buyers)

	var listings []models.Listing
	require.NoError(t, db.Preload("User").Find(&listings).Error)
	require.Len(t, listings, 25)
	for _, l := range listings {
		assert.Equal(t, models.RoleSeller, l.User.Role)
		assert.Equal(t, models.ListingPending, l.Status)
		assert.True(t, l.Categories.Valid())
		assert.True(t, l.Condition.Valid())
		require.NotNil(t, l.Image)
		assert.True(t, strings.HasPrefix(*l.Image, "https://picsum.photos/seed/"))
		assert.False(t, l.Price.IsNegative())
	}
}
