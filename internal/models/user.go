package models

// User is created on first sign-in through an identity provider. Email and
// IsAdmin never appear in JSON; the account owner reads them via dto.Account.
type User struct {
	Base
	Name    string `gorm:"size:255;not null;default:''" json:"name"`
	Email   string `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"-"`
	Image   string `gorm:"size:1024" json:"image"`
	IsAdmin bool   `gorm:"not null;default:false" json:"-"`
	Sex     string `gorm:"size:20" json:"sex"`
	Country string `gorm:"size:2" json:"country"`
	Bio     string `gorm:"type:text" json:"bio"`

	EmailPreference *EmailPreference `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// ProfileComplete reports whether the onboarding fields have been filled in.
func (u *User) ProfileComplete() bool {
	return u.Sex != "" && u.Country != "" && u.Bio != ""
}
