package models

import "github.com/google/uuid"

// Message is a chat entry scoped to a product.
type Message struct {
	Base
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsSystem  bool      `gorm:"not null;default:false" json:"is_system"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Product   Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// UnreadMessage marks a message a recipient has not seen yet. Rows are removed
// when that recipient posts in the same product.
type UnreadMessage struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_unread_user_message,priority:1" json:"user_id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_unread_user_message,priority:2" json:"message_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Message   Message   `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}
