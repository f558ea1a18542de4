package models

import "github.com/google/uuid"

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipApproved MembershipStatus = "APPROVED"
	MembershipRemoved  MembershipStatus = "REMOVED"
)

// Membership tracks a user's join request and standing within a product.
// At most one row exists per (user, product).
type Membership struct {
	Base
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_product,priority:1" json:"user_id"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_product,priority:2;index" json:"product_id"`
	Status    MembershipStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	User      User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Product   Product          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
