package models

import "github.com/google/uuid"

// Review starts as an anonymous draft keyed by a hash of the client IP and is
// re-keyed to the author on submission.
type Review struct {
	Base
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	IPHash    string     `gorm:"size:64;index" json:"-"`
	Rating    int        `gorm:"not null" json:"rating"`
	Comment   string     `gorm:"type:text" json:"comment"`
	Draft     bool       `gorm:"not null" json:"draft"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Product   Product    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}
