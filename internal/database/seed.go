package database

import (
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Marketplace/internal/models"
)

const (
	seedUsersPerRole    = 5
	seedListingsPerUser = 5
	SeedPassword        = "password"
)

var (
	seedFirstNames = []string{"Ada", "Bola", "Chidi", "Dami", "Efe", "Funke", "Gbenga", "Halima", "Ify", "Jide"}
	seedLastNames  = []string{"Okafor", "Adeyemi", "Bello", "Eze", "Nwosu", "Ogun", "Balogun", "Musa"}
	seedCities     = []string{"Lagos", "Abuja", "Ibadan", "Kano", "Enugu", "Port Harcourt", "Benin City", "Jos"}
	seedAdjectives = []string{"Vintage", "Compact", "Sturdy", "Elegant", "Portable", "Classic", "Modern", "Rugged"}
	seedNouns      = []string{"Lamp", "Bicycle", "Camera", "Jacket", "Speaker", "Desk", "Guitar", "Blender"}
)

// SeedResult summarizes what Seed created.
type SeedResult struct {
	Sellers  int
	Buyers   int
	Listings int
}

// Seed creates demo sellers and buyers plus listings for every seller.
// Every seeded account uses SeedPassword.
func Seed(db *gorm.DB, rng *rand.Rand) (SeedResult, error) {
	var result SeedResult

	hashed, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return result, fmt.Errorf("hash seed password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		sellers, err := seedUsers(tx, rng, models.RoleSeller, string(hashed))
		if err != nil {
			return err
		}
		buyers, err := seedUsers(tx, rng, models.RoleBuyer, string(hashed))
		if err != nil {
			return err
		}
		result.Sellers = len(sellers)
		result.Buyers = len(buyers)

		for _, seller := range sellers {
			for i := 0; i < seedListingsPerUser; i++ {
				listing := fakeListing(rng, seller.ID)
				if err := tx.Create(&listing).Error; err != nil {
					return fmt.Errorf("create seed listing: %w", err)
				}
				result.Listings++
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	log.Printf("🌱 Seeded %d sellers, %d buyers, %d listings", result.Sellers, result.Buyers, result.Listings)
	return result, nil
}

func seedUsers(tx *gorm.DB, rng *rand.Rand, role models.Role, hashed string) ([]models.User, error) {
	users := make([]models.User, 0, seedUsersPerRole)
	for i := 0; i < seedUsersPerRole; i++ {
		first := pick(rng, seedFirstNames)
		last := pick(rng, seedLastNames)
		user := models.User{
			Name:     first + " " + last,
			Email:    fmt.Sprintf("%s.%s.%s%d.%d@example.com", strings.ToLower(first), strings.ToLower(last), role, i+1, rng.Intn(1_000_000)),
			Password: hashed,
			Role:     role,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create seed %s: %w", role, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func fakeListing(rng *rand.Rand, userID uint) models.Listing {
	name := fmt.Sprintf("%s %s %d", pick(rng, seedAdjectives), pick(rng, seedNouns), rng.Intn(100))
	image := "https://picsum.photos/seed/" + url.QueryEscape(name) + "/640/480"
	// 10.00 to 10000.00
	cents := 1000 + rng.Int63n(999_001)

	return models.Listing{
		UserID:      userID,
		Name:        name,
		Price:       decimal.New(cents, -2),
		Location:    pick(rng, seedCities),
		Description: fmt.Sprintf("A %s in good shape, available for pickup in %s.", strings.ToLower(name), pick(rng, seedCities)),
		Categories:  models.Categories[rng.Intn(len(models.Categories))],
		Condition:   models.Conditions[rng.Intn(len(models.Conditions))],
		Image:       &image,
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
