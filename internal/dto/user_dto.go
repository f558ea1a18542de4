package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Image   *string `json:"image" validate:"omitempty,url,max=1024"`
	Sex     *string `json:"sex" validate:"omitempty,oneof=male female other"`
	Country *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Bio     *string `json:"bio" validate:"omitempty,max=1000"`
}

// UpdatePreferencesRequest toggles only the categories that are present.
type UpdatePreferencesRequest struct {
	MarketingEmails   *bool `json:"marketing_emails"`
	NewMessagesEmails *bool `json:"new_messages_emails"`
	JoinRequestEmails *bool `json:"join_request_emails"`
	MembershipEmails  *bool `json:"membership_emails"`
	ReviewEmails      *bool `json:"review_emails"`
}

type PublicProfile struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Image           string     `json:"image"`
	Country         string     `json:"country"`
	Bio             string     `json:"bio"`
	ProfileComplete bool       `json:"profile_complete"`
	Badges          []string   `json:"badges"`
	LastActiveAt    *time.Time `json:"last_active_at,omitempty"`
}

// Account is the signed-in user's own view of their record.
type Account struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Image           string    `json:"image"`
	IsAdmin         bool      `json:"is_admin"`
	Sex             string    `json:"sex"`
	Country         string    `json:"country"`
	Bio             string    `json:"bio"`
	ProfileComplete bool      `json:"profile_complete"`
	CreatedAt       time.Time `json:"created_at"`
}

type SignInResponse struct {
	Token string    `json:"token"`
	User  uuid.UUID `json:"user_id"`
}
