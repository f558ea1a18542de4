package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxMessageLength = 2000

// MessageService handles a product's group chat. Only the owner and approved
// members can read or post.
type MessageService struct {
	db     *gorm.DB
	notify *NotificationService
	filter *ContentFilter
	guard  Guard
}

func NewMessageService(db *gorm.DB, notify *NotificationService, filter *ContentFilter) *MessageService {
	return &MessageService{db: db, notify: notify, filter: filter}
}

func (s *MessageService) Send(ctx context.Context, caller *session.Session, productID uuid.UUID, content string) (*models.Message, error) {
	if err := s.requireChatAccess(ctx, caller, productID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be between 1 and %d characters", ErrInvalidInput, maxMessageLength)
	}
	if err := s.filter.Message(content); err != nil {
		return nil, err
	}

	msg := models.Message{ProductID: productID, UserID: caller.ID, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// posting counts as having read the thread
		if err := tx.Where("user_id = ? AND product_id = ?", caller.ID, productID).
			Delete(&models.UnreadMessage{}).Error; err != nil {
			return err
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if _, err := s.notify.NewMessage(ctx, &msg); err != nil {
		slog.Error("message fan-out failed", "product_id", productID.String(), "user_id", caller.ID.String(), "error", err)
	}
	return &msg, nil
}

// List returns up to limit messages older than before, newest first.
func (s *MessageService) List(ctx context.Context, caller *session.Session, productID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	if err := s.requireChatAccess(ctx, caller, productID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Preload("User").Where("product_id = ?", productID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var messages []models.Message
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (s *MessageService) UnreadCounts(ctx context.Context, caller *session.Session) ([]dto.UnreadCount, error) {
	if err := s.guard.RequireSession(caller); err != nil {
		return nil, err
	}

	var rows []struct {
		ProductID uuid.UUID
		Count     int64
	}
	err := s.db.WithContext(ctx).Model(&models.UnreadMessage{}).
		Select("product_id, COUNT(*) AS count").
		Where("user_id = ?", caller.ID).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]dto.UnreadCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, dto.UnreadCount{ProductID: r.ProductID.String(), Count: r.Count})
	}
	return counts, nil
}

func (s *MessageService) requireChatAccess(ctx context.Context, caller *session.Session, productID uuid.UUID) error {
	if err := s.guard.RequireSession(caller); err != nil {
		return err
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&product, "id = ?", productID).Error; err != nil {
		return notFound(err, ErrProductNotFound)
	}
	if product.UserID == caller.ID {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("product_id = ? AND user_id = ? AND status = ?", productID, caller.ID, models.MembershipApproved).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUnauthorized
	}
	return nil
}
