package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/crypto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewService lets visitors start a review before signing in. Drafts are
// keyed by a keyed hash of the client IP; the raw address is never stored.
type ReviewService struct {
	db        *gorm.DB
	notify    *NotificationService
	badges    *BadgeService
	filter    *ContentFilter
	ipHashKey []byte
	guard     Guard
}

func NewReviewService(db *gorm.DB, notify *NotificationService, badges *BadgeService, filter *ContentFilter, ipHashKey string) *ReviewService {
	return &ReviewService{
		db:        db,
		notify:    notify,
		badges:    badges,
		filter:    filter,
		ipHashKey: []byte(ipHashKey),
	}
}

func (s *ReviewService) SaveDraft(ctx context.Context, ip string, req *dto.ReviewDraftRequest) (*models.Review, error) {
	ipHash, err := crypto.HashIP(s.ipHashKey, ip)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.requireProduct(db, req.ProductID); err != nil {
		return nil, err
	}

	var review models.Review
	err = db.Where("product_id = ? AND ip_hash = ? AND draft = ? AND user_id IS NULL", req.ProductID, ipHash, true).
		First(&review).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review.ProductID = req.ProductID
	review.IPHash = ipHash
	review.Rating = req.Rating
	review.Comment = strings.TrimSpace(req.Comment)
	review.Draft = true
	if err := db.Omit("User", "Product").Save(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return &review, nil
}

// Submit publishes a review, updating an existing one when possible.
func (s *ReviewService) Submit(ctx context.Context, caller *session.Session, ip string, req *dto.SubmitReviewRequest) (*models.Review, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.Select("id", "user_id").First(&product, "id = ?", req.ProductID).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if product.UserID == caller.ID {
		return nil, ErrOwnProduct
	}

	comment := strings.TrimSpace(req.Comment)
	if err := s.filter.Review(comment); err != nil {
		return nil, err
	}
	ipHash, err := crypto.HashIP(s.ipHashKey, ip)
	if err != nil {
		return nil, err
	}

	review, err := s.findForSubmit(db, caller, ipHash, req)
	if err != nil {
		return nil, err
	}

	firstSubmission := review.ID == uuid.Nil || review.Draft
	userID := caller.ID
	review.ProductID = req.ProductID
	review.UserID = &userID
	review.Rating = req.Rating
	review.Comment = comment
	review.Draft = false
	if err := db.Omit("User", "Product").Save(review).Error; err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}

	if firstSubmission {
		if _, err := s.notify.ReviewReceived(ctx, review); err != nil {
			slog.Error("review notification failed", "product_id", review.ProductID.String(), "user_id", caller.ID.String(), "error", err)
		}
		if err := s.badges.Award(ctx, caller.ID, models.BadgeReviewer); err != nil {
			slog.Warn("failed to award badge", "user_id", caller.ID.String(), "badge", models.BadgeReviewer, "error", err)
		}
	}
	return review, nil
}

// findForSubmit resolves which row a submission writes to. A zero-ID review
// means a new row.
func (s *ReviewService) findForSubmit(db *gorm.DB, caller *session.Session, ipHash string, req *dto.SubmitReviewRequest) (*models.Review, error) {
	var review models.Review

	if req.ID != nil {
		if err := db.First(&review, "id = ?", *req.ID).Error; err != nil {
			return nil, notFound(err, ErrReviewNotFound)
		}
		if review.ProductID != req.ProductID {
			return nil, ErrReviewNotFound
		}
		switch {
		case review.UserID != nil && *review.UserID == caller.ID:
		case review.UserID == nil && review.Draft && review.IPHash == ipHash:
		default:
			return nil, ErrUnauthorized
		}
		return &review, nil
	}

	err := db.Where("product_id = ? AND user_id = ?", req.ProductID, caller.ID).First(&review).Error
	if err == nil {
		return &review, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review = models.Review{}
	err = db.Where("product_id = ? AND ip_hash = ? AND draft = ? AND user_id IS NULL", req.ProductID, ipHash, true).
		First(&review).Error
	if err == nil {
		return &review, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &models.Review{IPHash: ipHash}, nil
}

func (s *ReviewService) Delete(ctx context.Context, caller *session.Session, id uuid.UUID) error {
	if err := s.guard.RequireAdmin(caller); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListForProduct returns submitted reviews only.
func (s *ReviewService) ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ? AND draft = ?", productID, false).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *ReviewService) requireProduct(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return nil
}
