package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipService drives the join-request lifecycle:
//
//	NONE -> PENDING (Request)
//	PENDING -> APPROVED (Accept) | deleted (Refuse)
//	APPROVED -> REMOVED (Remove) | deleted (Leave)
type MembershipService struct {
	db     *gorm.DB
	notify *NotificationService
	badges *BadgeService
	guard  Guard
}

func NewMembershipService(db *gorm.DB, notify *NotificationService, badges *BadgeService) *MembershipService {
	return &MembershipService{db: db, notify: notify, badges: badges}
}

func (s *MembershipService) Request(ctx context.Context, caller *session.Session, productID uuid.UUID) (*models.Membership, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if product.UserID == caller.ID {
		return nil, ErrOwnProduct
	}

	var existing models.Membership
	err := db.Where("user_id = ? AND product_id = ?", caller.ID, productID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.MembershipRemoved {
			return nil, ErrMembershipRemoved
		}
		return nil, ErrAlreadyRequested
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	m := models.Membership{
		UserID:    caller.ID,
		ProductID: productID,
		Status:    models.MembershipPending,
		Read:      false,
	}
	if err := db.Create(&m).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyRequested
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	metrics.RecordTransition("request")

	if _, err := s.notify.JoinRequest(ctx, &m); err != nil {
		slog.Error("join request notification failed", "product_id", productID.String(), "user_id", caller.ID.String(), "error", err)
	}
	return &m, nil
}

// Accept approves a pending request, announces the member in chat and emails them.
func (s *MembershipService) Accept(ctx context.Context, caller *session.Session, membershipID uuid.UUID) (*models.Membership, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	m, err := s.load(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, m.Product.UserID); err != nil {
		return nil, err
	}
	if m.Status != models.MembershipPending {
		return nil, ErrInvalidTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, m.ID, models.MembershipPending, map[string]interface{}{
			"status": models.MembershipApproved,
			"read":   false,
		}); err != nil {
			return err
		}
		return tx.Create(&models.Message{
			ProductID: m.ProductID,
			UserID:    m.Product.UserID,
			Content:   m.User.Name + " joined the activity",
			IsSystem:  true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	m.Status = models.MembershipApproved
	m.Read = false
	metrics.RecordTransition("accept")

	if _, err := s.notify.MembershipAccepted(ctx, m); err != nil {
		slog.Error("membership accepted notification failed", "product_id", m.ProductID.String(), "user_id", m.UserID.String(), "error", err)
	}
	if err := s.badges.Award(ctx, m.UserID, models.BadgeFirstMatch); err != nil {
		slog.Warn("failed to award badge", "user_id", m.UserID.String(), "badge", models.BadgeFirstMatch, "error", err)
	}
	return m, nil
}

// Refuse deletes a pending request. The requester is not emailed.
func (s *MembershipService) Refuse(ctx context.Context, caller *session.Session, membershipID uuid.UUID) error {
	if err := s.guard.RequireSession(caller); err != nil {
		return err
	}
	m, err := s.load(ctx, membershipID)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, m.Product.UserID); err != nil {
		return err
	}
	if m.Status != models.MembershipPending {
		return ErrInvalidTransition
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", m.ID, models.MembershipPending).
		Delete(&models.Membership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	metrics.RecordTransition("refuse")
	return nil
}

// Remove kicks an approved member out and records it in the chat.
func (s *MembershipService) Remove(ctx context.Context, caller *session.Session, membershipID uuid.UUID) (*models.Membership, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	m, err := s.load(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, m.Product.UserID); err != nil {
		return nil, err
	}
	if m.Status != models.MembershipApproved {
		return nil, ErrInvalidTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, m.ID, models.MembershipApproved, map[string]interface{}{
			"status": models.MembershipRemoved,
		}); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND product_id = ?", m.UserID, m.ProductID).Delete(&models.UnreadMessage{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Message{
			ProductID: m.ProductID,
			UserID:    caller.ID,
			Content:   m.User.Name + " was removed from the activity",
			IsSystem:  true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	m.Status = models.MembershipRemoved
	metrics.RecordTransition("remove")
	return m, nil
}

// Leave lets an approved member drop out. Only the member may do this.
func (s *MembershipService) Leave(ctx context.Context, caller *session.Session, membershipID uuid.UUID) error {
	if err := s.guard.RequireSession(caller); err != nil {
		return err
	}
	m, err := s.load(ctx, membershipID)
	if err != nil {
		return err
	}
	if err := s.guard.RequireSelf(caller, m.UserID); err != nil {
		return err
	}
	if m.Status != models.MembershipApproved {
		return ErrInvalidTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", m.ID, models.MembershipApproved).Delete(&models.Membership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.Where("user_id = ? AND product_id = ?", m.UserID, m.ProductID).Delete(&models.UnreadMessage{}).Error
	})
	if err != nil {
		return err
	}
	metrics.RecordTransition("leave")
	return nil
}

// MarkRead clears the unseen flag. The owner reads pending requests; the
// member reads their own approval or removal.
func (s *MembershipService) MarkRead(ctx context.Context, caller *session.Session, membershipID uuid.UUID) error {
	if err := s.guard.RequireSession(caller); err != nil {
		return err
	}
	m, err := s.load(ctx, membershipID)
	if err != nil {
		return err
	}
	if m.Status == models.MembershipPending {
		err = s.guard.RequireOwnerOrAdmin(caller, m.Product.UserID)
	} else {
		err = s.guard.RequireSelf(caller, m.UserID)
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.Membership{}).Where("id = ?", m.ID).Update("read", true).Error
}

func (s *MembershipService) ListForProduct(ctx context.Context, caller *session.Session, productID uuid.UUID) ([]models.Membership, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := s.guard.RequireOwnerOrAdmin(caller, product.UserID); err != nil {
		return nil, err
	}

	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (s *MembershipService) ListMine(ctx context.Context, caller *session.Session) ([]models.Membership, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", caller.ID).
		Order("created_at DESC").
		Find(&memberships).Error
	return memberships, err
}

// Status returns the caller's membership in a product.
func (s *MembershipService) Status(ctx context.Context, caller *session.Session, productID uuid.UUID) (*models.Membership, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	var m models.Membership
	err := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", caller.ID, productID).First(&m).Error
	if err != nil {
		return nil, notFound(err, ErrMembershipNotFound)
	}
	return &m, nil
}

func (s *MembershipService) load(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrMembershipNotFound)
	}
	return &m, nil
}

// transition applies updates only if the row is still in the expected state.
func transition(tx *gorm.DB, id uuid.UUID, from models.MembershipStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.Membership{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}
