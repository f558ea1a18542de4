package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side half of a sign-in. The JWT handed to the client
// only references it by ID.
type Session struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	IP        string    `gorm:"size:64" json:"-"`
	UserAgent string    `gorm:"size:512" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
