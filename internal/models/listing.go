package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string
type Condition string
type ListingStatus string

const (
	CategoryElectronics       Category = "electronics"
	CategoryFashion           Category = "fashion"
	CategoryPhonesGadgets     Category = "phones-gadgets"
	CategoryHomeGarden        Category = "home-garden"
	CategoryVehicles          Category = "vehicles"
	CategoryRealEstate        Category = "real-estate"
	CategoryJobs              Category = "jobs"
	CategoryServices          Category = "services"
	CategoryEducation         Category = "education"
	CategoryHealthBeauty      Category = "health-beauty"
	CategorySportsFitness     Category = "sports-fitness"
	CategoryPets              Category = "pets"
	CategoryFoodDrinks        Category = "food-drinks"
	CategoryArtCollectibles   Category = "art-collectibles"
	CategoryBooksMusicMovies  Category = "books-music-movies"
	CategoryBusinessEquipment Category = "business-equipment"
)

const (
	ConditionNew         Condition = "new"
	ConditionUsedGood    Condition = "used-good"
	ConditionUsedLikeNew Condition = "used-like-new"
	ConditionUsedFair    Condition = "used-fair"
)

const (
	ListingPending  ListingStatus = "pending"
	ListingApproved ListingStatus = "approved"
	ListingRejected ListingStatus = "rejected"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryElectronics, CategoryFashion, CategoryPhonesGadgets, CategoryHomeGarden,
	CategoryVehicles, CategoryRealEstate, CategoryJobs, CategoryServices,
	CategoryEducation, CategoryHealthBeauty, CategorySportsFitness, CategoryPets,
	CategoryFoodDrinks, CategoryArtCollectibles, CategoryBooksMusicMovies, CategoryBusinessEquipment,
}

var Conditions = []Condition{ConditionNew, ConditionUsedGood, ConditionUsedLikeNew, ConditionUsedFair}

var ListingStatuses = []ListingStatus{ListingPending, ListingApproved, ListingRejected}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

func (s ListingStatus) Valid() bool {
	for _, known := range ListingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Listing struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Location        string          `gorm:"type:varchar(255);not null" json:"location"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Categories      Category        `gorm:"type:varchar(50);not null;index" json:"categories"`
	Condition       Condition       `gorm:"type:varchar(20);not null;index" json:"condition"`
	Status          ListingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason"`
	Image           *string         `gorm:"type:text" json:"image"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate hook to set default status
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.Status == "" {
		l.Status = ListingPending
	}
	return nil
}
