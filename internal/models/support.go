package models

import "github.com/google/uuid"

// SupportTicket is a threaded support conversation. Root tickets have no
// parent; admin replies are children with IsAdmin set.
type SupportTicket struct {
	Base
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ParentID   *uuid.UUID      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Subject    string          `gorm:"size:200" json:"subject"`
	Body       string          `gorm:"type:text;not null" json:"body"`
	IsAdmin    bool            `gorm:"not null;default:false" json:"is_admin"`
	IsResolved bool            `gorm:"not null;default:false" json:"is_resolved"`
	Replies    []SupportTicket `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
	User       User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Feedback is a one-per-user rating of the service.
type Feedback struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Rating int       `gorm:"not null" json:"rating"`
	Text   string    `gorm:"type:text" json:"text"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
