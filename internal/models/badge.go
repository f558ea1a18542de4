package models

import "github.com/google/uuid"

const (
	BadgeOrganizer       = "organizer"
	BadgeFirstMatch      = "first_match"
	BadgeReviewer        = "reviewer"
	BadgeStravaConnected = "strava_connected"
)

type UserBadge struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badges_user_badge,priority:1" json:"user_id"`
	Badge  string    `gorm:"size:50;not null;uniqueIndex:idx_user_badges_user_badge,priority:2" json:"badge"`
}
