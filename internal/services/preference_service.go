package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PreferenceService struct {
	db    *gorm.DB
	guard Guard
}

func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// ShouldSend reports whether userID wants emails of the given category.
// It fails open: a missing row or a store error both mean send.
func (s *PreferenceService) ShouldSend(ctx context.Context, userID uuid.UUID, category models.EmailCategory) bool {
	var pref models.EmailPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("email preference lookup failed, sending anyway",
				"user_id", userID.String(), "category", string(category), "error", err)
		}
		return true
	}
	return pref.Allows(category)
}

// Get returns the caller's preferences, creating the opted-in defaults on first access.
func (s *PreferenceService) Get(ctx context.Context, caller *session.Session) (*models.EmailPreference, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	return s.ensure(s.db.WithContext(ctx), caller.ID)
}

func (s *PreferenceService) Update(ctx context.Context, caller *session.Session, req *dto.UpdatePreferencesRequest) (*models.EmailPreference, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}

	var pref *models.EmailPreference
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pref, err = s.ensure(tx, caller.ID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.MarketingEmails != nil {
			updates["marketing_emails"] = *req.MarketingEmails
		}
		if req.NewMessagesEmails != nil {
			updates["new_messages_emails"] = *req.NewMessagesEmails
		}
		if req.JoinRequestEmails != nil {
			updates["join_request_emails"] = *req.JoinRequestEmails
		}
		if req.MembershipEmails != nil {
			updates["membership_emails"] = *req.MembershipEmails
		}
		if req.ReviewEmails != nil {
			updates["review_emails"] = *req.ReviewEmails
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(pref).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(pref, "id = ?", pref.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return pref, nil
}

func (s *PreferenceService) ensure(db *gorm.DB, userID uuid.UUID) (*models.EmailPreference, error) {
	pref := models.DefaultEmailPreference(userID)
	err := db.Where("user_id = ?", userID).Attrs(pref).FirstOrCreate(&pref).Error
	if isDuplicateKey(err) {
		// lost a race with a concurrent first access
		err = db.Where("user_id = ?", userID).First(&pref).Error
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
