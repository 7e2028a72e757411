package models

import "time"

// RevokedToken records a logged-out JWT until it would have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(64)" json:"jti"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
