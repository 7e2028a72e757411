package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string
type PaymentStatus string

const (
	PaymentCard PaymentMethod = "card"
	PaymentBank PaymentMethod = "bank"
)

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentBank
}

type Payment struct {
	ID                   uint            `gorm:"primarykey" json:"id"`
	ListingID            uint            `gorm:"not null;index" json:"listing_id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	Amount               decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod        PaymentMethod   `gorm:"type:varchar(10);not null" json:"payment_method"`
	PaymentStatus        PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	TransactionReference string          `gorm:"uniqueIndex;not null" json:"transaction_reference"`
	PaymentDetails       map[string]any  `gorm:"serializer:json;type:text" json:"payment_details"`
	BankReference        *string         `gorm:"index" json:"bank_reference"`
	CardDetails          *string         `gorm:"type:text" json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	// Relationships
	Listing Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
