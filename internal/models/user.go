package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string
type Sex string

// Capability is a single permission granted by a role.
type Capability string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

const (
	CapModerate       Capability = "moderate"
	CapSell           Capability = "sell"
	CapMessage        Capability = "message"
	CapPay            Capability = "pay"
	CapViewAnyPayment Capability = "view_any_payment"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:  {CapModerate, CapSell, CapMessage, CapPay, CapViewAnyPayment},
	RoleSeller: {CapSell, CapMessage, CapPay},
	RoleBuyer:  {CapMessage, CapPay},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants capability c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'buyer'" json:"role"`
	Age       *int      `json:"age"`
	Sex       *Sex      `gorm:"type:varchar(10)" json:"sex"`
	Phone     *string   `gorm:"type:varchar(20)" json:"phone"`
	Address   *string   `gorm:"type:varchar(255)" json:"address"`
	City      *string   `gorm:"type:varchar(100)" json:"city"`
	State     *string   `gorm:"type:varchar(100)" json:"state"`
	Country   *string   `gorm:"type:varchar(100)" json:"country"`
	Image     *string   `gorm:"type:text" json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to set default role
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleBuyer
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
