package dto

import "time"

type CreateProductRequest struct {
	Name         string     `json:"name" validate:"required,min=3,max=120"`
	Sport        string     `json:"sport" validate:"required,max=50"`
	Level        string     `json:"level" validate:"required,oneof=beginner intermediate advanced expert"`
	Description  string     `json:"description" validate:"max=5000"`
	VenueName    string     `json:"venue_name" validate:"max=255"`
	VenueAddress string     `json:"venue_address" validate:"max=512"`
	Lat          *float64   `json:"lat" validate:"omitempty,latitude"`
	Lng          *float64   `json:"lng" validate:"omitempty,longitude"`
	StartsAt     *time.Time `json:"starts_at"`
}

// UpdateProductRequest applies only the fields that are present.
type UpdateProductRequest struct {
	Name         *string    `json:"name" validate:"omitempty,min=3,max=120"`
	Sport        *string    `json:"sport" validate:"omitempty,max=50"`
	Level        *string    `json:"level" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	VenueName    *string    `json:"venue_name" validate:"omitempty,max=255"`
	VenueAddress *string    `json:"venue_address" validate:"omitempty,max=512"`
	Lat          *float64   `json:"lat" validate:"omitempty,latitude"`
	Lng          *float64   `json:"lng" validate:"omitempty,longitude"`
	StartsAt     *time.Time `json:"starts_at"`
}

type ProductFilter struct {
	Sport string
	Level string
	Page  int
	Limit int
}
