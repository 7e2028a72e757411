package models

import "time"

type Message struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_receiver_read" json:"receiver_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Read       bool      `gorm:"not null;default:false;index:idx_messages_receiver_read" json:"read"`
	ListingID  *uint     `gorm:"index" json:"listing_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Sender   User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver User     `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
	Listing  *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
