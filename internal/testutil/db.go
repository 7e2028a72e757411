// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Marketplace/internal/database"
	"Marketplace/internal/models"
)

const Password = "password123"

// NewDB returns an isolated, migrated in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		Password: string(hashed),
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateListing inserts a listing owned by owner; mutate adjusts defaults before insert.
func CreateListing(t *testing.T, db *gorm.DB, owner models.User, mutate func(*models.Listing)) models.Listing {
	t.Helper()

	listing := models.Listing{
		UserID:      owner.ID,
		Name:        "Test Item",
		Price:       decimal.RequireFromString("100.00"),
		Location:    "Lagos",
		Description: "A test listing",
		Categories:  models.CategoryElectronics,
		Condition:   models.ConditionNew,
	}
	if mutate != nil {
		mutate(&listing)
	}
	require.NoError(t, db.Create(&listing).Error)
	return listing
}
