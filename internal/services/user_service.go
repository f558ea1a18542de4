package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/presence"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is what an identity provider tells us about a signing-in user.
type Identity struct {
	Provider string
	Email    string
	Name     string
	Image    string
}

type UserService struct {
	db          *gorm.DB
	badges      *BadgeService
	presence    *presence.Tracker
	adminEmails map[string]bool
	guard       Guard
}

// NewUserService takes the comma-separated ADMIN_EMAILS list.
func NewUserService(db *gorm.DB, badges *BadgeService, tracker *presence.Tracker, adminEmails string) *UserService {
	admins := make(map[string]bool)
	for _, e := range strings.Split(adminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &UserService{db: db, badges: badges, presence: tracker, adminEmails: admins}
}

// UpsertFromIdentity finds the user by email or creates them. Listed admin
// emails are promoted; nobody is demoted here.
func (s *UserService) UpsertFromIdentity(ctx context.Context, id Identity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: identity provider returned no email", ErrInvalidInput)
	}
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Name:    id.Name,
			Email:   email,
			Image:   id.Image,
			IsAdmin: s.adminEmails[email],
		}
		err = db.Create(&user).Error
		if isDuplicateKey(err) {
			user = models.User{}
			err = db.Where("email = ?", email).First(&user).Error
		} else if err == nil {
			slog.Info("user created", "user_id", user.ID.String(), "provider", id.Provider)
			return &user, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	updates := map[string]interface{}{}
	if user.Name == "" && id.Name != "" {
		updates["name"] = id.Name
	}
	if user.Image == "" && id.Image != "" {
		updates["image"] = id.Image
	}
	if !user.IsAdmin && s.adminEmails[email] {
		updates["is_admin"] = true
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (s *UserService) Me(ctx context.Context, caller *session.Session) (*models.User, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	return s.find(ctx, caller.ID)
}

// PublicProfile is the view of a user anyone can see.
func (s *UserService) PublicProfile(ctx context.Context, id uuid.UUID) (*dto.PublicProfile, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	badges, err := s.badges.List(ctx, id)
	if err != nil {
		return nil, err
	}
	lastActive, err := s.presence.LastActive(ctx, id)
	if err != nil {
		slog.Debug("presence lookup failed", "user_id", id.String(), "error", err)
	}

	return &dto.PublicProfile{
		ID:              user.ID,
		Name:            user.Name,
		Image:           user.Image,
		Country:         user.Country,
		Bio:             user.Bio,
		ProfileComplete: user.ProfileComplete(),
		Badges:          badges,
		LastActiveAt:    lastActive,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller *session.Session, req *dto.UpdateProfileRequest) (*models.User, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Sex != nil {
		updates["sex"] = *req.Sex
	}
	if req.Country != nil {
		updates["country"] = strings.ToUpper(*req.Country)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.find(ctx, caller.ID)
}

// DeleteAccount erases the user and everything they own. Only the user may do this.
func (s *UserService) DeleteAccount(ctx context.Context, caller *session.Session, userID uuid.UUID) error {
	if err := s.guard.RequireSelf(caller, userID); err != nil {
		return err
	}
	if _, err := s.find(ctx, userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []uuid.UUID
		if err := tx.Model(&models.Product{}).Where("user_id = ?", userID).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if err := deleteProducts(tx, owned); err != nil {
			return err
		}

		if err := tx.Where("message_id IN (?)", tx.Model(&models.Message{}).Select("id").Where("user_id = ?", userID)).
			Delete(&models.UnreadMessage{}).Error; err != nil {
			return err
		}

		// replies on the user's own tickets go with them
		if err := tx.Where("parent_id IN (?)", tx.Model(&models.SupportTicket{}).Select("id").Where("user_id = ?", userID)).
			Delete(&models.SupportTicket{}).Error; err != nil {
			return err
		}

		for _, model := range []interface{}{
			&models.Session{},
			&models.UnreadMessage{},
			&models.Membership{},
			&models.Message{},
			&models.Review{},
			&models.Feedback{},
			&models.SupportTicket{},
			&models.EmailPreference{},
			&models.UserBadge{},
			&models.StravaActivity{},
			&models.StravaConnection{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}
