package models

import "github.com/google/uuid"

type EmailCategory string

const (
	EmailMarketing   EmailCategory = "marketingEmails"
	EmailNewMessages EmailCategory = "newMessagesEmails"
	EmailJoinRequest EmailCategory = "joinRequestEmails"
	EmailMembership  EmailCategory = "membershipEmails"
	EmailReview      EmailCategory = "reviewEmails"
)

// EmailPreference holds one toggle per notification category.
type EmailPreference struct {
	Base
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_email_preferences_user" json:"user_id"`
	MarketingEmails   bool      `gorm:"not null;default:true" json:"marketing_emails"`
	NewMessagesEmails bool      `gorm:"not null;default:true" json:"new_messages_emails"`
	JoinRequestEmails bool      `gorm:"not null;default:true" json:"join_request_emails"`
	MembershipEmails  bool      `gorm:"not null;default:true" json:"membership_emails"`
	ReviewEmails      bool      `gorm:"not null;default:true" json:"review_emails"`
}

// DefaultEmailPreference returns the opted-in row created on first access.
func DefaultEmailPreference(userID uuid.UUID) EmailPreference {
	return EmailPreference{
		UserID:            userID,
		MarketingEmails:   true,
		NewMessagesEmails: true,
		JoinRequestEmails: true,
		MembershipEmails:  true,
		ReviewEmails:      true,
	}
}

// Allows reports the toggle for a category. Unknown categories are allowed.
func (p *EmailPreference) Allows(category EmailCategory) bool {
	switch category {
	case EmailMarketing:
		return p.MarketingEmails
	case EmailNewMessages:
		return p.NewMessagesEmails
	case EmailJoinRequest:
		return p.JoinRequestEmails
	case EmailMembership:
		return p.MembershipEmails
	case EmailReview:
		return p.ReviewEmails
	}
	return true
}
