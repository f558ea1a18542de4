package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is an activity listing owned by the user who created it.
type Product struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string     `gorm:"size:120;not null" json:"name"`
	Sport        string     `gorm:"size:50;not null;index" json:"sport"`
	Level        string     `gorm:"size:30;not null" json:"level"`
	Description  string     `gorm:"type:text" json:"description"`
	VenueName    string     `gorm:"size:255" json:"venue_name"`
	VenueAddress string     `gorm:"size:512" json:"venue_address"`
	Lat          *float64   `json:"lat,omitempty"`
	Lng          *float64   `json:"lng,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	Slug         string     `gorm:"size:200;not null;uniqueIndex:idx_products_slug" json:"slug"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
}
