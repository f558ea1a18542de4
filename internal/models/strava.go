package models

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/crypto"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tokenEncryptor *crypto.TokenEncryptor

// InitEncryption sets the encryptor used for third-party tokens. Without it,
// tokens are stored as given.
func InitEncryption(key string) error {
	enc, err := crypto.NewTokenEncryptor(key)
	if err != nil {
		return err
	}
	tokenEncryptor = enc
	return nil
}

// StravaConnection links a user to their fitness-tracking account.
type StravaConnection struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_strava_connections_user" json:"user_id"`
	AthleteID    string     `gorm:"size:64;not null" json:"athlete_id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *StravaConnection) BeforeSave(tx *gorm.DB) error {
	if tokenEncryptor == nil {
		return nil
	}
	var err error
	if s.AccessToken, err = tokenEncryptor.Encrypt(s.AccessToken); err != nil {
		return err
	}
	s.RefreshToken, err = tokenEncryptor.Encrypt(s.RefreshToken)
	return err
}

func (s *StravaConnection) AfterSave(tx *gorm.DB) error {
	return s.decrypt()
}

func (s *StravaConnection) AfterFind(tx *gorm.DB) error {
	return s.decrypt()
}

func (s *StravaConnection) decrypt() error {
	if tokenEncryptor == nil {
		return nil
	}
	var err error
	if s.AccessToken, err = tokenEncryptor.Decrypt(s.AccessToken); err != nil {
		return err
	}
	s.RefreshToken, err = tokenEncryptor.Decrypt(s.RefreshToken)
	return err
}

// StravaActivity is an activity pulled from the user's fitness-tracking account.
type StravaActivity struct {
	Base
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	StravaID   int64          `gorm:"not null;uniqueIndex:idx_strava_activities_strava_id" json:"strava_id"`
	Name       string         `gorm:"size:255" json:"name"`
	SportType  string         `gorm:"size:50" json:"sport_type"`
	Distance   float64        `json:"distance"`
	MovingTime int            `json:"moving_time"`
	StartDate  time.Time      `json:"start_date"`
	Raw        datatypes.JSON `gorm:"type:jsonb" json:"-"`
	User       User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
